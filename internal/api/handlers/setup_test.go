package handlers_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/api"
	"github.com/hugh/langhub/internal/api/dto"
	"github.com/hugh/langhub/internal/auth"
	"github.com/hugh/langhub/internal/license"
	"github.com/hugh/langhub/internal/membership/lock"
	"github.com/hugh/langhub/internal/testutil"
	"github.com/hugh/langhub/pkg/crypto"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*testutil.TestSetup
	router   http.Handler
	licenses *license.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tc := testutil.NewTestContext(t)

	enc, err := crypto.NewEphemeralEncryptor()
	require.NoError(t, err)
	licenses := license.NewService(tc.DB, enc)

	router := api.NewRouter(api.RouterConfig{
		DB:             tc.DB,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		JWTService:     tc.JWTService,
		AuthService:    auth.NewService(tc.DB, tc.JWTService),
		TokenTTL:       24 * time.Hour,
		Licenses:       licenses,
		Locker:         lock.NewLocalLocker(),
		ResolveTimeout: 5 * time.Second,
	})

	return &testServer{TestSetup: tc, router: router, licenses: licenses}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.AuthenticatedRequest(t, method, path, body, token)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// installLicense imports a license for plan valid from an hour ago for a year.
func (s *testServer) installLicense(t *testing.T, plan access.Plan) {
	t.Helper()
	now := time.Now().UTC()
	sealed, err := license.Issue(s.licenses.Recipient(), license.Payload{
		Licensee:     "Test",
		Restrictions: access.LicenseRestrictions{Plan: plan},
		StartsAt:     now.Add(-time.Hour),
		ExpiresAt:    now.AddDate(1, 0, 0),
	})
	require.NoError(t, err)
	_, err = s.licenses.Import(testutil.TestContext(t), sealed)
	require.NoError(t, err)
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.ErrorResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	return resp.Code
}
