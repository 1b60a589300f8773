package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrorResponse represents the API error response format
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorHandler renders errors as JSON bodies and logs them by status class:
// 5xx at error, 4xx at warn.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler. In debug mode responses
// carry the underlying cause and stack trace.
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes err. Errors that are not AppErrors become a generic 500 so
// internal messages do not leak.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr := GetAppError(err)
	if appErr == nil {
		appErr = NewInternalError("an internal error occurred").WithCause(err)
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := ErrorResponse{
		Error:   true,
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	}
	// Storage failures name the backend operation only
	if appErr.Type == ErrorTypeDatabase && !h.debug {
		resp.Message = "storage is unavailable"
	}
	if h.debug {
		resp.Details = withDebug(resp.Details, appErr)
	}

	fields := []zap.Field{zap.String("error_type", string(appErr.Type))}
	if appErr.Code != "" {
		fields = append(fields, zap.String("error_code", appErr.Code))
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}
	if len(appErr.Details) > 0 {
		fields = append(fields, zap.Any("details", appErr.Details))
	}
	h.write(w, r, status, resp, appErr.Message, fields...)
}

// HandleStatus writes a bare status with message, for router-level
// failures such as unknown routes or rate limiting.
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := ErrorResponse{
		Error:   true,
		Type:    statusToErrorType(status),
		Message: message,
	}
	h.write(w, r, status, resp, message)
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse, msg string, fields ...zap.Field) {
	resp.RequestID = middleware.GetReqID(r.Context())

	level := zapcore.WarnLevel
	if status >= 500 {
		level = zapcore.ErrorLevel
	}
	if ce := h.logger.Check(level, msg); ce != nil {
		ce.Write(append(fields,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.String("request_id", resp.RequestID),
		)...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

func withDebug(details map[string]interface{}, err *AppError) map[string]interface{} {
	out := make(map[string]interface{}, len(details)+2)
	for k, v := range details {
		out[k] = v
	}
	if err.Cause != nil {
		out["cause"] = err.Cause.Error()
	}
	if err.StackTrace != "" {
		out["stack_trace"] = err.StackTrace
	}
	return out
}

func statusToErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(ErrorTypeValidation)
	case http.StatusNotFound:
		return string(ErrorTypeNotFound)
	case http.StatusConflict:
		return string(ErrorTypeConflict)
	case http.StatusRequestTimeout:
		return string(ErrorTypeTimeout)
	case http.StatusServiceUnavailable:
		return string(ErrorTypeUnavailable)
	case http.StatusTooManyRequests:
		return string(ErrorTypeRateLimited)
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return string(ErrorTypeInternal)
	}
}

// Middleware recovers panics in later handlers and answers 500
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.Error("Handler panicked", zap.Any("panic", rec), zap.Stack("stack"))
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
