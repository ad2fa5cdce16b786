//go:build ignore

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hugh/langhub/internal/auth"
	"github.com/hugh/langhub/internal/database"
	"github.com/hugh/langhub/internal/database/models"
	"github.com/hugh/langhub/pkg/config"
	"github.com/hugh/langhub/pkg/util"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// Seeds an admin, a translator and a manager, one organization on the team
// plan with a project, and one private project owned by the admin.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)
	ctx := context.Background()

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin123!"
	}

	admin, err := authService.Register(ctx, auth.RegisterInput{Email: email, Password: password, Name: "Admin"})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}
	if err := db.Model(admin.User).Update("is_superadmin", true).Error; err != nil {
		log.Fatalf("failed to promote admin: %v", err)
	}

	manager := mustRegister(ctx, authService, "manager@example.com", "Manager")
	translator := mustRegister(ctx, authService, "translator@example.com", "Translator")

	err = db.Transaction(func(tx *gorm.DB) error {
		org := models.Organization{Name: "Acme Localization", Slug: "acme"}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Subscription{
			OrganizationID:   org.ID,
			Plan:             "team",
			Status:           models.SubscriptionStatusActive,
			UsersCount:       3,
			CurrentPeriodEnd: time.Now().UTC().AddDate(0, 1, 0),
		}).Error; err != nil {
			return err
		}

		orgProject := models.Project{Name: "Website", OrganizationID: &org.ID}
		private := models.Project{Name: "Side Project"}
		if err := tx.Create(&orgProject).Error; err != nil {
			return err
		}
		if err := tx.Create(&private).Error; err != nil {
			return err
		}

		assignments := []models.RoleAssignment{
			{UserID: admin.User.ID, ScopeType: models.ScopeTypeOrganization, ScopeID: org.ID, Role: "owner"},
			{UserID: manager.ID, ScopeType: models.ScopeTypeOrganization, ScopeID: org.ID, Role: "manager"},
			{UserID: translator.ID, ScopeType: models.ScopeTypeProject, ScopeID: orgProject.ID, Role: "translator"},
			{UserID: admin.User.ID, ScopeType: models.ScopeTypeProject, ScopeID: private.ID, Role: "owner"},
		}
		return tx.Create(&assignments).Error
	})
	if err != nil {
		log.Fatalf("failed to seed organization: %v", err)
	}

	fmt.Printf("Seed data created successfully!\n")
	fmt.Printf("Admin: %s\n", admin.User.Email)
	fmt.Printf("Token: %s\n", admin.Token)
}

func mustRegister(ctx context.Context, svc *auth.Service, email, name string) *models.User {
	resp, err := svc.Register(ctx, auth.RegisterInput{Email: email, Password: "password123", Name: name})
	if err != nil {
		log.Fatalf("failed to create %s: %v", email, err)
	}
	return resp.User
}
