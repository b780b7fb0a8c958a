package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrValidationFailed   = errors.New("query validation failed")
	ErrQueryFailed        = errors.New("query failed")
	ErrReadOnly           = errors.New("only read-only statements may be executed")
	ErrNoCodeFound        = errors.New("no code found")
	ErrPlotFailed         = errors.New("no usable plot produced")
	ErrInvalidChartSpec   = errors.New("invalid chart specification")
	ErrInvalidRequest     = errors.New("invalid request")
)

// Error codes shared by the HTTP API and the MCP tools.
const (
	CodeServiceUnavailable = "service_unavailable"
	CodeValidationFailed   = "validation_failed"
	CodeQueryFailed        = "query_failed"
	CodeReadOnly           = "read_only"
	CodeNoCodeFound        = "no_code_found"
	CodePlotFailed         = "plot_failed"
	CodeInvalidChartSpec   = "invalid_chart_spec"
	CodeNotFound           = "not_found"
	CodeInvalidRequest     = "invalid_request"
	CodeInternal           = "internal_error"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidRequest, CodeInvalidRequest},
	{ErrNotFound, CodeNotFound},
	{ErrServiceUnavailable, CodeServiceUnavailable},
	{ErrReadOnly, CodeReadOnly},
	{ErrValidationFailed, CodeValidationFailed},
	{ErrQueryFailed, CodeQueryFailed},
	{ErrNoCodeFound, CodeNoCodeFound},
	{ErrPlotFailed, CodePlotFailed},
	{ErrInvalidChartSpec, CodeInvalidChartSpec},
}

// Code returns the error code of the first sentinel err wraps, or
// CodeInternal.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
