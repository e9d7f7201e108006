//go:build unit || e2e

package authtest

import (
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const FakeAccessToken = "ya29.fake-access-token"

// CalendarEvent is one event insert received by FakeGoogle.
type CalendarEvent struct {
	CalendarID    string
	Authorization string
	Body          map[string]any
}

// FakeGoogle serves the OAuth token endpoint at /token and the calendar
// events endpoint under /calendar/v3. Assertions are verified against the
// service account public key.
type FakeGoogle struct {
	Server *httptest.Server

	publicKey *rsa.PublicKey

	mu             sync.Mutex
	rejectToken    bool
	rejectCalendar bool
	tokenRequests  int
	lastAssertion  jwt.MapClaims
	events         []CalendarEvent
}

func NewFakeGoogle(t *testing.T, publicKey *rsa.PublicKey) *FakeGoogle {
	t.Helper()

	f := &FakeGoogle{publicKey: publicKey}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", f.handleToken)
	mux.HandleFunc("POST /calendar/v3/calendars/{calendarID}/events", f.handleEvent)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeGoogle) TokenURI() string {
	return f.Server.URL + "/token"
}

func (f *FakeGoogle) CalendarBaseURL() string {
	return f.Server.URL + "/calendar/v3"
}

func (f *FakeGoogle) RejectToken(reject bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectToken = reject
}

func (f *FakeGoogle) RejectCalendar(reject bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectCalendar = reject
}

func (f *FakeGoogle) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectToken = false
	f.rejectCalendar = false
	f.tokenRequests = 0
	f.lastAssertion = nil
	f.events = nil
}

func (f *FakeGoogle) TokenRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenRequests
}

func (f *FakeGoogle) LastAssertion() jwt.MapClaims {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAssertion
}

func (f *FakeGoogle) Events() []CalendarEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CalendarEvent(nil), f.events...)
}

func (f *FakeGoogle) handleToken(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenRequests++

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("grant_type") != "urn:ietf:params:oauth:grant-type:jwt-bearer" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(r.PostForm.Get("assertion"), claims, func(tok *jwt.Token) (any, error) {
		return f.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil || f.rejectToken {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}
	f.lastAssertion = claims

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": FakeAccessToken,
		"token_type":   "Bearer",
		"expires_in":   3599,
	})
}

func (f *FakeGoogle) handleEvent(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rejectCalendar {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": map[string]any{"code": 403, "message": "Forbidden"}})
		return
	}
	if strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") != FakeAccessToken {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"code": 401, "message": "Invalid Credentials"}})
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": err.Error()}})
		return
	}

	id := "evt-" + uuid.NewString()
	f.events = append(f.events, CalendarEvent{
		CalendarID:    r.PathValue("calendarID"),
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"htmlLink": f.Server.URL + "/event?eid=" + id,
		"status":   "confirmed",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
