package password

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tendant/simple-idm-mfa/internal/http/middleware"
	"github.com/tendant/simple-idm-mfa/internal/httputil"
	"github.com/tendant/simple-idm-mfa/pkg/auth"
	"github.com/tendant/simple-idm-mfa/pkg/repository"
	"github.com/tendant/simple-idm-mfa/pkg/session"
)

func newTestHandler(t *testing.T) (*Handler, *auth.MFAService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := repository.NewMemoryUsersRepository()
	store := session.NewMemoryStore(time.Hour, 0)
	t.Cleanup(func() { _ = store.Close() })

	mfaService := auth.NewMFAService(auth.MFAConfig{}, users, store, logger)
	passwordService := auth.NewPasswordService(users, &auth.PasswordPolicy{MinLength: 8, RequireNumber: true})
	return NewHandler(logger, passwordService, mfaService, httputil.DefaultCookieConfig()), mfaService
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "empty body",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "username and password are required",
		},
		{
			name:           "invalid json",
			body:           `{invalid}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
		{
			name:           "bad username",
			body:           `{"username":"a b","password":"password1"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid username format: must be 3-30 characters, alphanumeric/underscore/hyphen, start with alphanumeric",
		},
		{
			name:           "weak password",
			body:           `{"username":"alice","password":"password"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	handler, _ := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.Register(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.expectedStatus)
			}
			var response map[string]string
			json.NewDecoder(rec.Body).Decode(&response)
			if tt.expectedError != "" && response["error"] != tt.expectedError {
				t.Errorf("Error = %q, want %q", response["error"], tt.expectedError)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	handler, _ := newTestHandler(t)
	body := `{"username":"alice","password":"password1"}`

	rec := httptest.NewRecorder()
	handler.Register(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusCreated)
	}

	rec = httptest.NewRecorder()
	handler.Register(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestLogin_RotatesSession(t *testing.T) {
	handler, mfaService := newTestHandler(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	login := middleware.Session(mfaService, logger)(http.HandlerFunc(handler.Login))
	creds := `{"username":"alice","password":"password1"}`

	rec := httptest.NewRecorder()
	handler.Register(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(creds)))

	rec = httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(creds)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
	first := rec.Result().Cookies()[0]
	if first.Name != httputil.SessionCookieName || !first.HttpOnly {
		t.Fatalf("cookie = %+v", first)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(creds))
	req.AddCookie(first)
	rec = httptest.NewRecorder()
	login.ServeHTTP(rec, req)
	second := rec.Result().Cookies()[0]

	if second.Value == first.Value {
		t.Error("login kept the old session ID")
	}
	if mfaService.IsFullyAuthenticated(req.Context(), first.Value) {
		t.Error("old session is still authenticated")
	}
	if !mfaService.IsFullyAuthenticated(req.Context(), second.Value) {
		t.Error("new session is not authenticated")
	}
}
