package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gromit-app/gromit/services"
	"github.com/gromit-app/gromit/utils"
	"go.uber.org/zap"
)

// HandlerFunc is an HTTP handler that returns its failure instead of writing it
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// failureSlot holds the first failure recorded for a request
type failureSlot struct {
	err error
}

// Handle adapts a HandlerFunc, reporting any returned error
func Handle(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			ReportError(w, r, err)
		}
	})
}

// ReportError records err for the ErrorTranslator of the request.
// Outside a translator the failure envelope is written immediately.
func ReportError(w http.ResponseWriter, r *http.Request, err error) {
	if slot, ok := r.Context().Value(failureKey).(*failureSlot); ok {
		if slot.err == nil {
			slot.err = err
		}
		return
	}
	status, message := StatusFor(err)
	_ = utils.WriteFailure(w, status, message)
}

// StatusFor maps an error to its HTTP status and client-facing message
func StatusFor(err error) (int, string) {
	if msg, ok := utils.FirstValidationMessage(err); ok {
		return http.StatusBadRequest, msg
	}

	switch services.GetErrorType(err) {
	case services.ErrorTypeValidation:
		return http.StatusBadRequest, services.PublicMessage(err)
	case services.ErrorTypeUnauthorized:
		return http.StatusUnauthorized, services.PublicMessage(err)
	case services.ErrorTypeForbidden:
		return http.StatusForbidden, services.PublicMessage(err)
	case services.ErrorTypeNotFound:
		return http.StatusNotFound, services.PublicMessage(err)
	case services.ErrorTypeConflict:
		return http.StatusConflict, services.PublicMessage(err)
	case services.ErrorTypeExternal:
		return http.StatusBadGateway, services.PublicMessage(err)
	default:
		return http.StatusInternalServerError, services.ErrInternal.Message
	}
}

// ErrorTranslator turns failures reported below it into envelope responses
type ErrorTranslator struct {
	logger *zap.Logger
}

// NewErrorTranslator creates a new ErrorTranslator
func NewErrorTranslator(logger *zap.Logger) *ErrorTranslator {
	return &ErrorTranslator{logger: logger}
}

// Translate wraps the rest of the chain. It also recovers panics, which are
// answered with a 500 envelope.
func (t *ErrorTranslator) Translate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slot := &failureSlot{}
		tw := &trackingWriter{ResponseWriter: w}
		r = r.WithContext(context.WithValue(r.Context(), failureKey, slot))

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				t.logger.Error("panic recovered",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				slot.err = fmt.Errorf("panic: %v", rec)
			}
			if slot.err != nil {
				t.write(tw, r, slot.err)
			}
		}()

		next.ServeHTTP(tw, r)
	})
}

func (t *ErrorTranslator) write(w *trackingWriter, r *http.Request, err error) {
	status, message := StatusFor(err)
	fields := []zap.Field{
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}

	if w.wroteHeader {
		t.logger.Error("failure after response was written", fields...)
		return
	}

	if status >= http.StatusInternalServerError {
		t.logger.Error("request failed", fields...)
	} else {
		t.logger.Info("request rejected", fields...)
	}

	if writeErr := utils.WriteFailure(w, status, message); writeErr != nil && !errors.Is(writeErr, context.Canceled) {
		t.logger.Warn("failed to write failure response", zap.Error(writeErr))
	}
}

// trackingWriter records whether a response has been started
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer to http.ResponseController
func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
