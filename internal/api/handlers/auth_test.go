package handlers_test

import (
	"net/http"
	"testing"

	"github.com/hugh/langhub/internal/api/dto"
	"github.com/hugh/langhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	s := newTestServer(t)

	t.Run("successful registration", func(t *testing.T) {
		body := map[string]string{
			"email":    "NewUser@Example.com",
			"password": "securepassword123",
			"name":     "New User",
		}

		rr := s.do(t, "POST", "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "newuser@example.com", resp.User.Email)
		assert.Equal(t, "New User", resp.User.Name)
		assert.False(t, resp.User.IsSuperadmin)
	})

	t.Run("registration grants no memberships", func(t *testing.T) {
		body := map[string]string{
			"email":    "lonely@example.com",
			"password": "securepassword123",
			"name":     "Lonely User",
		}
		rr := s.do(t, "POST", "/api/v1/auth/register", body, "")
		require.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)

		rr = s.do(t, "GET", "/api/v1/projects", nil, resp.Token)
		assert.Equal(t, http.StatusOK, rr.Code)
		var list dto.ListResponse[dto.ProjectDTO]
		testutil.ParseJSONResponse(t, rr, &list)
		assert.Empty(t, list.Data)
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := map[string]string{
			"email":    "duplicate@example.com",
			"password": "securepassword123",
			"name":     "First User",
		}

		rr := s.do(t, "POST", "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusCreated, rr.Code)

		rr = s.do(t, "POST", "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"password": "securepassword123", "name": "No Email"}},
		{"invalid email", map[string]string{"email": "not-an-email", "password": "securepassword123", "name": "Bad Email"}},
		{"password too short", map[string]string{"email": "shortpw@example.com", "password": "short", "name": "Short PW"}},
		{"missing name", map[string]string{"email": "noname@example.com", "password": "securepassword123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, "POST", "/api/v1/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	s := newTestServer(t)

	registerBody := map[string]string{
		"email":    "logintest@example.com",
		"password": "securepassword123",
		"name":     "Login Test User",
	}
	rr := s.do(t, "POST", "/api/v1/auth/register", registerBody, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	t.Run("successful login", func(t *testing.T) {
		body := map[string]string{
			"email":    "logintest@example.com",
			"password": "securepassword123",
		}

		rr := s.do(t, "POST", "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "logintest@example.com", resp.User.Email)

		var tokenCookie *http.Cookie
		for _, c := range rr.Result().Cookies() {
			if c.Name == "token" {
				tokenCookie = c
				break
			}
		}
		require.NotNil(t, tokenCookie)
		assert.Equal(t, resp.Token, tokenCookie.Value)
		assert.True(t, tokenCookie.HttpOnly)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := map[string]string{"email": "logintest@example.com", "password": "wrongpassword"}
		rr := s.do(t, "POST", "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("non-existent user", func(t *testing.T) {
		body := map[string]string{"email": "nonexistent@example.com", "password": "anypassword"}
		rr := s.do(t, "POST", "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		body := map[string]string{"email": "logintest@example.com"}
		rr := s.do(t, "POST", "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "POST", "/api/v1/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var tokenCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "token" {
			tokenCookie = c
			break
		}
	}
	require.NotNil(t, tokenCookie)
	assert.Empty(t, tokenCookie.Value)
	assert.Equal(t, -1, tokenCookie.MaxAge)
}

func TestAuthHandler_Me(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "GET", "/api/v1/me", nil, s.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var user dto.UserDTO
	testutil.ParseJSONResponse(t, rr, &user)
	assert.Equal(t, s.User.ID.String(), user.ID)
	assert.Equal(t, s.User.Email, user.Email)

	rr = s.do(t, "GET", "/api/v1/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
