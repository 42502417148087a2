// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Body is the JSON error envelope returned by every API endpoint.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ErrorLogger writes JSON error responses and logs the ones operators
// need to see. It is shared by every feature handler.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
}

// LogServerError logs msg at error level and answers 500 with a generic
// message. The underlying error never reaches the client.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.Log.Error(msg, e.fields(r, err)...)
	WriteError(w, http.StatusInternalServerError, string(apperr.KindInternal), "An internal error occurred.")
}

// LogBadRequest logs at debug level and answers 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Debug(msg, e.fields(r, err)...)
	WriteError(w, http.StatusBadRequest, string(apperr.KindInvalidArgument), userMsg)
}

// LogUnauthorized answers 401 for requests that reached a handler without
// a signed-in caller.
func (e *ErrorLogger) LogUnauthorized(w http.ResponseWriter, r *http.Request) {
	e.Log.Debug("unauthenticated request reached handler",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	WriteError(w, http.StatusUnauthorized, "unauthenticated", "Sign in required.")
}

// LogForbidden answers 403 with userMsg.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, userMsg string) {
	WriteError(w, http.StatusForbidden, string(apperr.KindPermissionDenied), userMsg)
}

// Write maps err to its status and envelope. Internal errors are logged
// with msg as the log message; classified errors are answered as-is.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, msg string, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		e.LogServerError(w, r, msg, err)
		return
	}
	WriteError(w, StatusFor(kind), string(kind), apperr.Message(err))
}

// Handler answers requests no feature router claimed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, string(apperr.KindNotFound), "Route not found.")
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed.")
}
