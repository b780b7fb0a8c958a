package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("datasource %q: %w", "x", ErrNotFound), CodeNotFound},
		{fmt.Errorf("no such table: %w", ErrQueryFailed), CodeQueryFailed},
		{fmt.Errorf("DELETE statement rejected: %w", ErrReadOnly), CodeReadOnly},
		{ErrServiceUnavailable, CodeServiceUnavailable},
		{ErrNoCodeFound, CodeNoCodeFound},
		{fmt.Errorf("exit status 1: %w", ErrPlotFailed), CodePlotFailed},
		{ErrInvalidChartSpec, CodeInvalidChartSpec},
		{fmt.Errorf("mode: %w", ErrInvalidRequest), CodeInvalidRequest},
		{ErrValidationFailed, CodeValidationFailed},
		{errors.New("boom"), CodeInternal},
		{nil, CodeInternal},
	}

	for _, tt := range tests {
		if got := Code(tt.err); got != tt.want {
			t.Errorf("Code(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
