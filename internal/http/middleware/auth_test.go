package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tendant/simple-idm-mfa/internal/httputil"
	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

type stubLoader map[string]domain.AuthState

func (s stubLoader) State(_ context.Context, sid string) (domain.AuthState, error) {
	if sid == "broken" {
		return domain.AuthState{}, errors.New("store down")
	}
	if state, ok := s[sid]; ok {
		return state, nil
	}
	return domain.Unauthenticated(), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSession_LoadsState(t *testing.T) {
	loader := stubLoader{
		"s1": {PrimaryUser: "alice", Phase: domain.PhasePrimaryOK},
	}

	var gotSID string
	var gotState domain.AuthState
	handler := Session(loader, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSID = GetSessionID(r.Context())
		gotState = GetAuthState(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: httputil.SessionCookieName, Value: "s1"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotSID != "s1" {
		t.Errorf("session ID = %q, want s1", gotSID)
	}
	if gotState.PrimaryUser != "alice" || gotState.Phase != domain.PhasePrimaryOK {
		t.Errorf("state = %+v", gotState)
	}
}

func TestSession_NoCookie(t *testing.T) {
	var gotState domain.AuthState
	handler := Session(stubLoader{}, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotState = GetAuthState(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if gotState.Phase != domain.PhaseUnauthenticated {
		t.Errorf("phase = %q, want %q", gotState.Phase, domain.PhaseUnauthenticated)
	}
}

func TestSession_StoreError(t *testing.T) {
	called := false
	handler := Session(stubLoader{}, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: httputil.SessionCookieName, Value: "broken"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("handler ran despite a session store failure")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestRequireFullyAuthenticated(t *testing.T) {
	loader := stubLoader{
		"pending":  {PrimaryUser: "alice", Phase: domain.PhasePrimaryOK},
		"verified": {PrimaryUser: "alice", Phase: domain.PhaseMFAVerified},
	}

	tests := []struct {
		name       string
		sid        string
		wantStatus int
	}{
		{"no session", "", http.StatusUnauthorized},
		{"unknown session", "nope", http.StatusUnauthorized},
		{"awaiting second factor", "pending", http.StatusUnauthorized},
		{"fully authenticated", "verified", http.StatusOK},
	}

	handler := Session(loader, discardLogger())(RequireFullyAuthenticated()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if tt.sid != "" {
				req.AddCookie(&http.Cookie{Name: httputil.SessionCookieName, Value: tt.sid})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetAuthState_MissingFromContext(t *testing.T) {
	if got := GetAuthState(context.Background()); got.Phase != domain.PhaseUnauthenticated {
		t.Errorf("GetAuthState() = %+v, want unauthenticated", got)
	}
}
