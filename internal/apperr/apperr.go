package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// Kind identifies a family of failures surfaced to the request layer.
type Kind string

const (
	KindInvalidInput         Kind = "Invalid input data"
	KindDocumentParsing      Kind = "Document parsing error"
	KindQuizGeneration       Kind = "Quiz generation error"
	KindFlashcardsGeneration Kind = "Flashcards generation error"
	KindNotImplemented       Kind = "Not implemented error"
	KindWebPage              Kind = "WebPageException"
	KindIndexLoad            Kind = "Index load error"
	KindInternal             Kind = "InternalServerError"
)

// 402 is what the clients already expect for unbuilt sources.
const statusNotImplemented = http.StatusPaymentRequired

// Error is the single error type handed to the request layer.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Cause      error
	Trace      string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so callers can compare against the exported sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Cause == nil
}

// sentinels for errors.Is
var (
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrDocumentParsing      = &Error{Kind: KindDocumentParsing}
	ErrQuizGeneration       = &Error{Kind: KindQuizGeneration}
	ErrFlashcardsGeneration = &Error{Kind: KindFlashcardsGeneration}
	ErrNotImplemented       = &Error{Kind: KindNotImplemented}
	ErrWebPage              = &Error{Kind: KindWebPage}
	ErrIndexLoad            = &Error{Kind: KindIndexLoad}
)

func InvalidInput(format string, args ...any) *Error {
	return &Error{
		Kind:       KindInvalidInput,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
	}
}

func DocumentParsing(cause error) *Error {
	return wrap(KindDocumentParsing, "Something went wrong during document parsing", http.StatusUnauthorized, cause)
}

func QuizGeneration(cause error) *Error {
	return wrap(KindQuizGeneration, "Something went wrong during quiz generation", http.StatusUnauthorized, cause)
}

func FlashcardsGeneration(cause error) *Error {
	return wrap(KindFlashcardsGeneration, "Something went wrong during flashcards generation", http.StatusUnauthorized, cause)
}

func NotImplemented(feature string) *Error {
	return &Error{
		Kind:       KindNotImplemented,
		Message:    fmt.Sprintf("Not implemented yet: %s", feature),
		StatusCode: statusNotImplemented,
	}
}

func WebPage(format string, args ...any) *Error {
	return &Error{
		Kind:       KindWebPage,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusForbidden,
	}
}

// IndexLoad never reaches clients: callers fall back to rebuilding the index.
func IndexLoad(cause error) *Error {
	return wrap(KindIndexLoad, "Could not load persisted vector index", http.StatusInternalServerError, cause)
}

func wrap(kind Kind, msg string, status int, cause error) *Error {
	return &Error{
		Kind:       kind,
		Message:    msg,
		StatusCode: status,
		Cause:      cause,
		Trace:      fmt.Sprintf("%v\n%s", cause, debug.Stack()),
	}
}

// Body is the JSON payload written for a failed request.
type Body struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	StackTrace string `json:"stack_trace,omitempty"`
}

// Response maps any error to a status code and body. Untyped errors become 500.
func Response(err error) (int, Body) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode, Body{
			Error:      string(appErr.Kind),
			Message:    appErr.Message,
			StatusCode: appErr.StatusCode,
			StackTrace: appErr.Trace,
		}
	}
	return http.StatusInternalServerError, Body{
		Error:      string(KindInternal),
		Message:    err.Error(),
		StatusCode: http.StatusInternalServerError,
	}
}

func StatusCode(err error) int {
	code, _ := Response(err)
	return code
}
