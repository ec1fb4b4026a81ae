package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestRespondStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ErrBusiness(CodeSlotConflict), http.StatusConflict, CodeSlotConflict},
		{ErrBusiness(CodeFullyBooked), http.StatusConflict, CodeFullyBooked},
		{ErrBusiness(CodeInvalidDate), http.StatusBadRequest, CodeInvalidDate},
		{ErrBusiness(CodeTimeout), http.StatusServiceUnavailable, CodeTimeout},
		{ErrBusiness(CodeUnauthorized), http.StatusForbidden, CodeUnauthorized},
		{fmt.Errorf("wrapped: %w", ErrBusiness(CodeAlreadyWaiting)), http.StatusConflict, CodeAlreadyWaiting},
		{gorm.ErrRecordNotFound, http.StatusNotFound, CodeNotFound},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Respond(c, tc.err)

		if w.Code != tc.status {
			t.Errorf("%v: status %d, want %d", tc.err, w.Code, tc.status)
		}
		var body HTTPError
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body.Code != tc.code {
			t.Errorf("%v: code %q, want %q", tc.err, body.Code, tc.code)
		}
	}
}

func TestBusinessMessages(t *testing.T) {
	conflict, _ := AsBusiness(ErrBusiness(CodeSlotConflict))
	full, _ := AsBusiness(ErrBusiness(CodeFullyBooked))
	if conflict.Message == "" || conflict.Message == full.Message {
		t.Fatal("conflict and fully booked need distinct messages")
	}

	custom := ErrBusinessMsg(CodeOutOfHours, "Fechado.")
	if !IsBusiness(custom, CodeOutOfHours) || IsBusiness(custom, CodeInvalidDate) {
		t.Fatal("IsBusiness should match on code only")
	}
}

func TestPostgresClassification(t *testing.T) {
	excl := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"})
	uniq := &pgconn.PgError{Code: "23505", ConstraintName: "uniq_waitlist_active"}

	if !IsExclusionConflict(excl) || IsExclusionConflict(uniq) {
		t.Fatal("exclusion violation misclassified")
	}
	if !IsUniqueViolation(uniq, "uniq_waitlist_active") || IsUniqueViolation(uniq, "other") {
		t.Fatal("unique violation misclassified")
	}
	if !IsUniqueViolation(uniq, "") {
		t.Fatal("empty constraint name matches any unique violation")
	}
}
