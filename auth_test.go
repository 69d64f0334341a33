package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func mintToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestHS256VerifierValidToken(t *testing.T) {
	v := hs256Verifier{secret: testSecret}
	token := mintToken(t, testSecret, jwt.MapClaims{"user_id": "user-42", "email": "a@b.c"})

	userID, err := v.verifyToken(token)
	if err != nil {
		t.Fatalf("verifyToken: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("userID = %q, want user-42", userID)
	}
}

func TestHS256VerifierRejections(t *testing.T) {
	v := hs256Verifier{secret: testSecret}

	noneToken := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "user-42"})
	noneSigned, err := noneToken.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	expired := mintToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-42",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"wrong secret", mintToken(t, []byte("other-secret"), jwt.MapClaims{"user_id": "user-42"})},
		{"alg none", noneSigned},
		{"expired", expired},
		{"missing user_id", mintToken(t, testSecret, jwt.MapClaims{"email": "a@b.c"})},
		{"empty user_id", mintToken(t, testSecret, jwt.MapClaims{"user_id": ""})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.verifyToken(tc.token); err == nil {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := &Handler{
		store:    &fakeStore{},
		advisor:  &fakeAdvisor{},
		sessions: newSessionStore(30 * time.Minute),
		verifier: hs256Verifier{secret: testSecret},
	}
	router := gin.New()
	h.registerRoutes(router)

	valid := mintToken(t, testSecret, jwt.MapClaims{"user_id": "user-42"})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc123", http.StatusUnauthorized},
		{"bearer garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/mood/insights", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
