package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-askdb/pkg/llm"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// ApiResponse is the envelope of every /api response.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, ApiResponse{Error: errorCode, Message: message})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeOK writes a success envelope around data.
func writeOK(w http.ResponseWriter, logger *zap.Logger, data any) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeError writes an error envelope and logs encoding failures.
func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeServiceError maps a service error to a status and error code.
// data carries a partial result (for example the SQL that failed validation)
// and may be nil. Internal errors are logged and their message hidden.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, data any) {
	status, code := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
		message = "Internal server error"
	} else {
		logger.Debug("Request rejected", zap.String("code", code), zap.Error(err))
	}

	resp := ApiResponse{Data: data, Error: code, Message: message}
	if err := WriteJSON(w, status, resp); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// statusForError returns the HTTP status and error code for err.
// Model failures get an llm_ prefixed code.
func statusForError(err error) (int, string) {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		if llmErr.Type == llm.ErrorTypeRateLimited {
			return http.StatusTooManyRequests, "llm_" + string(llmErr.Type)
		}
		return http.StatusBadGateway, "llm_" + string(llmErr.Type)
	}

	code := apperrors.Code(err)
	switch code {
	case apperrors.CodeServiceUnavailable:
		return http.StatusServiceUnavailable, code
	case apperrors.CodeValidationFailed, apperrors.CodeQueryFailed,
		apperrors.CodeNoCodeFound, apperrors.CodePlotFailed, apperrors.CodeInvalidChartSpec:
		return http.StatusUnprocessableEntity, code
	case apperrors.CodeNotFound:
		return http.StatusNotFound, code
	case apperrors.CodeInvalidRequest, apperrors.CodeReadOnly:
		return http.StatusBadRequest, code
	default:
		return http.StatusInternalServerError, apperrors.CodeInternal
	}
}

// decodeJSON decodes a bounded JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
