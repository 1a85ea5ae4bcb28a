package apperr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func TestIsMatchesByCode(t *testing.T) {
	err := WithMetadata(CodePaymentRequired, "session fee outstanding", map[string]string{"user_id": "u1"})
	wrapped := errors.Wrap(err, "check in")

	if !errors.Is(wrapped, ErrPaymentRequired) {
		t.Fatal("expected wrapped error to match ErrPaymentRequired")
	}
	if errors.Is(wrapped, ErrTenantMismatch) {
		t.Fatal("did not expect match on a different code")
	}
	if got := CodeOf(wrapped); got != CodePaymentRequired {
		t.Fatalf("CodeOf: want %s, got %s", CodePaymentRequired, got)
	}
}

func TestReadClassifiesMissingRows(t *testing.T) {
	err := Read("session", gorm.ErrRecordNotFound)
	if CodeOf(err) != CodeNotFound {
		t.Fatalf("want NOT_FOUND, got %s", CodeOf(err))
	}

	err = Read("session", errors.New("database is locked"))
	e, ok := As(err)
	if !ok || e.Code != CodeStorage {
		t.Fatalf("want STORAGE, got %v", err)
	}
	if !e.Retryable {
		t.Error("read failures should be retryable")
	}
}

func TestWriteIsNeverRetryable(t *testing.T) {
	e, ok := As(Write("attendance", errors.New("disk I/O error")))
	if !ok || e.Code != CodeStorage {
		t.Fatalf("want STORAGE error, got %v", e)
	}
	if e.Retryable {
		t.Error("write failures must not be retryable")
	}
}

func TestDomainErrorsPassThrough(t *testing.T) {
	orig := New(CodeNotEnrolled, "no enrollment")
	if got := Write("payment", orig); got != error(orig) {
		t.Fatalf("domain error should pass through unchanged, got %v", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidToken:    http.StatusBadRequest,
		CodeTenantMismatch:  http.StatusForbidden,
		CodePaymentRequired: http.StatusPaymentRequired,
		CodeNotEnrolled:     http.StatusUnprocessableEntity,
		CodeNotFound:        http.StatusNotFound,
		CodeCheckInDenied:   http.StatusForbidden,
		CodeInvalidArgument: http.StatusBadRequest,
		CodeStorage:         http.StatusInternalServerError,
		CodeUnknown:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := code.HTTPStatus(); got != want {
			t.Errorf("%s: want %d, got %d", code, want, got)
		}
	}
}
