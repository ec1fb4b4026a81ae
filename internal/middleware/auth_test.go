package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/barber-booking-engine/internal/config"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: "s3cret"}

	var got access.Actor
	r := gin.New()
	r.Use(AuthMiddleware(cfg))
	r.GET("/me", func(c *gin.Context) {
		got, _ = ActorFrom(c)
		c.Status(http.StatusOK)
	})
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/staff", RequireStaff(), func(c *gin.Context) { c.Status(http.StatusOK) })

	exp := time.Now().Add(time.Hour).Unix()
	customer := signed(t, "s3cret", jwt.MapClaims{"sub": 7, "barbershopId": 3, "role": "customer", "exp": exp})
	legacy := signed(t, "s3cret", jwt.MapClaims{"sub": 1, "barbershopId": 3, "exp": exp})
	barber := signed(t, "s3cret", jwt.MapClaims{"sub": 9, "barbershopId": 3, "role": "barber", "exp": exp})
	forged := signed(t, "other", jwt.MapClaims{"sub": 1, "barbershopId": 3, "role": "admin", "exp": exp})
	expired := signed(t, "s3cret", jwt.MapClaims{"sub": 1, "barbershopId": 3, "exp": time.Now().Add(-time.Hour).Unix()})

	call := func(path, header string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := call("/me", "Bearer "+customer); code != http.StatusOK {
		t.Fatalf("customer /me: %d", code)
	}
	if got.UserID != 7 || got.BarbershopID != 3 || !got.IsCustomer() {
		t.Fatalf("actor = %+v", got)
	}

	cases := []struct {
		path, header string
		status       int
	}{
		{"/me", "", http.StatusUnauthorized},
		{"/me", "Token " + customer, http.StatusUnauthorized},
		{"/me", "Bearer " + forged, http.StatusUnauthorized},
		{"/me", "Bearer " + expired, http.StatusUnauthorized},
		{"/admin", "Bearer " + customer, http.StatusForbidden},
		{"/admin", "Bearer " + barber, http.StatusForbidden},
		{"/admin", "Bearer " + legacy, http.StatusOK},
		{"/staff", "Bearer " + barber, http.StatusOK},
		{"/staff", "Bearer " + customer, http.StatusForbidden},
	}
	for _, tc := range cases {
		if code := call(tc.path, tc.header); code != tc.status {
			t.Errorf("%s %q: status %d, want %d", tc.path, tc.header, code, tc.status)
		}
	}
}
