package api_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garnizeh/mentorhub/api"
	"github.com/garnizeh/mentorhub/pkg/models"
	"github.com/garnizeh/mentorhub/pkg/repository/mock"
)

func TestLoggingMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	})

	handler := api.LoggingMiddleware(next)
	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "ok" {
		t.Fatalf("unexpected body: %q", string(b))
	}
}

func TestLoggingMiddleware_FlushThroughRecorder(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("flush through logging middleware: %v", err)
		}
	})

	w := httptest.NewRecorder()
	api.LoggingMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))
	if !w.Flushed {
		t.Fatalf("expected underlying recorder to be flushed")
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := api.CORSMiddleware(next)

	// OPTIONS should return 204 and not call next
	reqOpt := httptest.NewRequest(http.MethodOptions, "/cors", nil)
	wOpt := httptest.NewRecorder()
	handler.ServeHTTP(wOpt, reqOpt)
	resOpt := wOpt.Result()
	defer resOpt.Body.Close()
	if resOpt.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for OPTIONS, got %d", resOpt.StatusCode)
	}
	if got := resOpt.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS header set, got %q", got)
	}

	// GET should pass through and set headers
	reqGet := httptest.NewRequest(http.MethodGet, "/cors", nil)
	wGet := httptest.NewRecorder()
	handler.ServeHTTP(wGet, reqGet)
	resGet := wGet.Result()
	defer resGet.Body.Close()
	if resGet.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for GET, got %d", resGet.StatusCode)
	}
	if got := resGet.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, "GET") {
		t.Fatalf("expected Allow-Methods to include GET, got %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	// handler that panics
	pan := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := api.RecoveryMiddleware(pan)
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 from panic recovery, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `"error":"internal server error"`) {
		t.Fatalf("unexpected body for recovery: %s", string(b))
	}

	// normal handler should pass through
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler2 := api.RecoveryMiddleware(ok)
	w2 := httptest.NewRecorder()
	handler2.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w2.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for normal path, got %d", w2.Result().StatusCode)
	}
}

func TestJWTAuthMiddlewareWithSecret(t *testing.T) {
	secret := "s3cr3t"
	var gotID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = api.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	mocks := mock.NewMocks()
	uid := mocks.Users.Add(models.User{Email: "a@uni.edu", TokenVersion: 2})
	handler := api.JWTAuthMiddlewareWithSecret(secret, mocks.Users)(next)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, api.Claims{UserID: uid, TokenVersion: 2})
	noneStr, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := []struct {
		name       string
		authHeader string
		query      string
		wantStatus int
	}{
		{name: "MissingHeader", wantStatus: http.StatusUnauthorized},
		{name: "EmptyBearer", authHeader: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "WrongScheme", authHeader: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "BadToken", authHeader: "Bearer bad.token.here", wantStatus: http.StatusUnauthorized},
		{name: "WrongSecret", authHeader: "Bearer " + signToken(t, "other", uid, 2, time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "Expired", authHeader: "Bearer " + signToken(t, secret, uid, 2, -time.Minute), wantStatus: http.StatusUnauthorized},
		{name: "AlgNone", authHeader: "Bearer " + noneStr, wantStatus: http.StatusUnauthorized},
		{name: "StaleVersion", authHeader: "Bearer " + signToken(t, secret, uid, 1, time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "UnknownUser", authHeader: "Bearer " + signToken(t, secret, 999, 0, time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "MissingUserID", authHeader: "Bearer " + signToken(t, secret, 0, 0, time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "Valid", authHeader: "Bearer " + signToken(t, secret, uid, 2, time.Hour), wantStatus: http.StatusOK},
		{name: "QueryToken", query: "?token=" + signToken(t, secret, uid, 2, time.Hour), wantStatus: http.StatusOK},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gotID = 0
			req := httptest.NewRequest(http.MethodGet, "/jwt"+c.query, nil)
			if c.authHeader != "" {
				req.Header.Set("Authorization", c.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Result().StatusCode != c.wantStatus {
				t.Fatalf("%s: want %d got %d", c.name, c.wantStatus, w.Result().StatusCode)
			}
			if c.wantStatus == http.StatusOK && gotID != uid {
				t.Fatalf("%s: expected user id %d in context got %d", c.name, uid, gotID)
			}
		})
	}
}

func TestJWTAuthMiddleware_LookupError(t *testing.T) {
	secret := "s3cr3t"
	mocks := mock.NewMocks()
	mocks.Users.LookupErr = errors.New("db down")
	handler := api.JWTAuthMiddlewareWithSecret(secret, mocks.Users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/jwt", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", signToken(t, secret, 1, 0, time.Hour)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", w.Code)
	}
}
