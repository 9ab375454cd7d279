package errortypes

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	base := errors.New("connection refused")

	err := TransientError(base, "tempo request failed")
	if err.Error() != "tempo request failed: connection refused" {
		t.Errorf("Unexpected error string: %q", err.Error())
	}

	bare := &AppError{Err: base, Type: ErrorTypeTransient}
	if bare.Error() != "connection refused" {
		t.Errorf("Expected bare error string, got %q", bare.Error())
	}
}

func TestUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := NotFoundError(base, "worklog missing")

	if !errors.Is(err, base) {
		t.Error("Expected errors.Is to find the wrapped error")
	}

	wrapped := fmt.Errorf("handler: %w", err)
	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("Expected errors.As to find AppError through wrapping")
	}
	if appErr.Type != ErrorTypeNotFound {
		t.Errorf("Expected not_found type, got %s", appErr.Type)
	}
}

func TestTypePredicates(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		predicate func(error) bool
		want      bool
	}{
		{"config", ConfigError(errors.New("x"), "m"), IsConfigError, true},
		{"validation", ValidationError(errors.New("x"), "m"), IsValidationError, true},
		{"not_found", NotFoundError(errors.New("x"), "m"), IsNotFoundError, true},
		{"rate_limited", RateLimitedError(errors.New("x"), "m"), IsRateLimitedError, true},
		{"transient", TransientError(errors.New("x"), "m"), IsTransientError, true},
		{"protocol", ProtocolError(errors.New("x"), "m"), IsProtocolError, true},
		{"cross-type", ValidationError(errors.New("x"), "m"), IsNotFoundError, false},
		{"plain error", errors.New("plain"), IsValidationError, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.predicate(tc.err); got != tc.want {
				t.Errorf("predicate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTypeOf(t *testing.T) {
	if TypeOf(errors.New("plain")) != ErrorTypeInternal {
		t.Error("Plain errors should map to internal")
	}
	if TypeOf(RateLimitedError(errors.New("x"), "m")) != ErrorTypeRateLimited {
		t.Error("Expected rate_limited type")
	}
}

func TestWithFieldAndHTTPStatus(t *testing.T) {
	err := APIError(errors.New("forbidden"), "tempo rejected request").
		WithField(FieldHTTPStatus, 403).
		WithField(FieldOperation, "create_worklog")

	if err.HTTPStatus() != 403 {
		t.Errorf("Expected HTTP status 403, got %d", err.HTTPStatus())
	}
	if err.Fields[FieldOperation] != "create_worklog" {
		t.Errorf("Expected operation field, got %v", err.Fields[FieldOperation])
	}

	// No status attached.
	plain := ValidationError(errors.New("x"), "m")
	if plain.HTTPStatus() != 0 {
		t.Errorf("Expected zero status, got %d", plain.HTTPStatus())
	}
}

func TestNilErrorDefaults(t *testing.T) {
	err := InternalError(nil, "something went wrong")
	if err.Err == nil {
		t.Fatal("Expected a placeholder underlying error")
	}
}
