package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRedirectToLogin(t *testing.T) {
	rec := httptest.NewRecorder()
	RedirectToLogin(rec, "login required")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "login required" || body["redirect"] != "/login" {
		t.Errorf("body = %v", body)
	}
}

func TestError_OmitsRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "bad")

	if strings.Contains(rec.Body.String(), "redirect") {
		t.Errorf("body = %s, want no redirect", rec.Body.String())
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var v struct {
		Code string `json:"code"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"1","extra":true}`))
	if err := DecodeJSON(req, &v); err == nil {
		t.Error("DecodeJSON accepted an unknown field")
	}
}

func TestSessionCookie(t *testing.T) {
	cfg := DefaultCookieConfig()
	cfg.Secure = true
	cfg.TTL = time.Hour

	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "abc", cfg)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != "abc" {
		t.Errorf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode || c.MaxAge != 3600 {
		t.Errorf("cookie attributes = %+v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	if sid, ok := GetSessionID(req); !ok || sid != "abc" {
		t.Errorf("GetSessionID() = %q, %v", sid, ok)
	}

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec, cfg)
	if c := rec.Result().Cookies()[0]; c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("cleared cookie = %+v", c)
	}
}

func TestGetSessionID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := GetSessionID(req); ok {
		t.Error("GetSessionID() found a session without a cookie")
	}
}

func TestBadRequestBody_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"123456789"}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 4)

	var v map[string]string
	err := DecodeJSON(req, &v)
	if err == nil {
		t.Fatal("DecodeJSON read past the body limit")
	}
	BadRequestBody(rec, err)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}
