package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeOrderNotFound, "order not found")
	wrapped := fmt.Errorf("advance: %w", WithMetadata(CodeOrderNotFound, "order ORD1 not found", map[string]string{"OrderID": "ORD1"}))

	if !stderrors.Is(wrapped, sentinel) {
		t.Fatal("expected wrapped error to match sentinel by code")
	}
	if stderrors.Is(wrapped, New(CodeAccessDenied, "denied")) {
		t.Fatal("expected different code to not match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodePersistenceFailure, "save orders", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if got := err.Error(); got != "save orders: disk full" {
		t.Fatalf("error = %q, want %q", got, "save orders: disk full")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: stderrors.New("x"), want: CodeUnknown},
		{name: "domain", err: New(CodeCartEmpty, "empty"), want: CodeCartEmpty},
		{name: "wrapped domain", err: fmt.Errorf("ctx: %w", New(CodeIllegalTransition, "bad")), want: CodeIllegalTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Fatalf("CodeOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeCartEmpty, http.StatusBadRequest},
		{CodeTextEmpty, http.StatusBadRequest},
		{CodeActionInvalid, http.StatusBadRequest},
		{CodeOrderNotFound, http.StatusNotFound},
		{CodeCategoryNotFound, http.StatusNotFound},
		{CodeIllegalTransition, http.StatusConflict},
		{CodeOrderIDCollision, http.StatusConflict},
		{CodeAccessDenied, http.StatusForbidden},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodePersistenceFailure, http.StatusServiceUnavailable},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Fatalf("%s.HTTPStatus() = %d, want %d", tt.code, got, tt.want)
		}
	}
}
