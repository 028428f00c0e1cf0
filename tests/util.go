package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/session"
)

// API is a fake attendance backend for app-level tests: enough of the real
// API surface to exercise the full login/events/mark/admin flows over HTTP.
type API struct {
	Server *httptest.Server

	mu      sync.Mutex
	Events  []attendance.Event
	Details map[string]attendance.EventDetail
	Code    string // code handed out by /attendance/start

	// overridable behaviors
	MarkStatus  int    // non-zero forces this status on mark
	MarkMessage string // error payload message on forced failure

	MarkedCodes   []string // codes received on successful marks
	Overridden    []string // user ids force-marked present
	LoginAttempts int
}

func NewAPI(t *testing.T) *API {
	t.Helper()
	api := &API{
		Details: map[string]attendance.EventDetail{},
		Code:    "A1B2C3",
	}
	api.Server = httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(api.Server.Close)
	return api
}

func (api *API) handle(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	defer api.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/auth/login":
		api.LoginAttempts++
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password == "wrong" {
			writeErr(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeJSON(w, map[string]interface{}{
			"token": Token(nil, req.Email, time.Hour),
			"user":  map[string]string{"id": "usr-1", "email": req.Email},
		})

	case path == "/auth/me":
		writeJSON(w, map[string]string{"id": "usr-1", "email": "jdoe@example.com"})

	case path == "/attendee/events":
		writeJSON(w, api.Events)

	case strings.HasSuffix(path, "/attendance/start"):
		writeJSON(w, map[string]string{"attendanceCode": api.Code})

	case strings.HasSuffix(path, "/attendance/mark"):
		if api.MarkStatus != 0 {
			writeErr(w, api.MarkStatus, api.MarkMessage)
			return
		}
		var req attendance.MarkRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		api.MarkedCodes = append(api.MarkedCodes, req.AttendanceCode)
		w.WriteHeader(http.StatusNoContent)

	case strings.HasSuffix(path, "/attendance/manual-override"):
		var req struct {
			UserID string `json:"userId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		api.Overridden = append(api.Overridden, req.UserID)
		w.WriteHeader(http.StatusNoContent)

	case strings.HasPrefix(path, "/events/"):
		id := strings.TrimPrefix(path, "/events/")
		detail, ok := api.Details[id]
		if !ok {
			writeErr(w, http.StatusNotFound, "event not found")
			return
		}
		writeJSON(w, detail)

	default:
		writeErr(w, http.StatusNotFound, "")
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// Token signs a throwaway HS256 JWT the client can decode.
func Token(t *testing.T, email string, ttl time.Duration) string {
	if t != nil {
		t.Helper()
	}
	claims := session.Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "usr-1",
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
		Email: email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		if t != nil {
			t.Fatalf("signing token: %v", err)
		}
		panic(err)
	}
	return token
}

// NewConfig points a config at the fake API with a throwaway state dir and
// test-friendly intervals.
func NewConfig(t *testing.T, api *API) *core.Config {
	t.Helper()
	return &core.Config{
		Debug:    true,
		Env:      "TEST",
		AppName:  "Mahudhurio",
		StateDir: t.TempDir(),
		API: core.APIConfig{
			BaseURL: api.Server.URL,
			Timeout: 5 * time.Second,
		},
		Attendance: core.AttendanceConfig{
			CodeTTL:      90 * time.Second,
			PollInterval: 20 * time.Millisecond,
		},
		Location: core.LocationConfig{
			HighAccuracy: true,
			Timeout:      time.Second,
			MaximumAge:   time.Minute,
		},
	}
}

// Logger discards everything.
type Logger struct{}

func (Logger) Enable(bool)                  {}
func (Logger) Debug(string, ...interface{}) {}
func (Logger) Info(string, ...interface{})  {}
func (Logger) Warn(string, ...interface{})  {}
func (Logger) Error(string, ...interface{}) {}
func (Logger) Fatal(string, ...interface{}) {}
