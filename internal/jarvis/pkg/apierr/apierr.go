// Package apierr implements the error taxonomy from the uniform error
// handling design: a small set of kinds, each with a canonical HTTP status,
// that every component maps its failures onto at its boundary.
//
// Modeled after the teacher's handler/v1/errors.go coder-registration
// pattern and service/agents/pkg/errno sentinel-error package, merged into
// one taxonomy because this service has one HTTP surface instead of several
// independent resource groups.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one entry in the error taxonomy of §7.
type Kind string

const (
	Validation      Kind = "Validation"
	Authentication  Kind = "Authentication"
	Authorization   Kind = "Authorization"
	NotFound        Kind = "NotFound"
	Conflict        Kind = "Conflict"
	RateLimit       Kind = "RateLimit"
	ExternalService Kind = "ExternalService"
	PolicyViolation Kind = "PolicyViolation"
	BudgetExceeded  Kind = "BudgetExceeded"
	Timeout         Kind = "Timeout"
	CircuitOpen     Kind = "CircuitOpen"
	Internal        Kind = "Internal"
)

var httpStatus = map[Kind]int{
	Validation:      http.StatusBadRequest,
	Authentication:  http.StatusUnauthorized,
	Authorization:   http.StatusForbidden,
	NotFound:        http.StatusNotFound,
	Conflict:        http.StatusConflict,
	RateLimit:       http.StatusTooManyRequests,
	ExternalService: http.StatusBadGateway,
	PolicyViolation: http.StatusUnprocessableEntity,
	BudgetExceeded:  http.StatusUnprocessableEntity,
	Timeout:         http.StatusGatewayTimeout,
	CircuitOpen:     http.StatusServiceUnavailable,
	Internal:        http.StatusInternalServerError,
}

// Code is a fine-grained error code nested under a Kind, e.g. SessionNotFound
// under NotFound, CapacityExceeded under RateLimit.
type Code string

const (
	CodeSessionNotFound    Code = "SessionNotFound"
	CodeRunNotFound        Code = "RunNotFound"
	CodeAgentNotFound      Code = "AgentNotFound"
	CodeNodeNotFound       Code = "NodeNotFound"
	CodeAccessDenied       Code = "AccessDenied"
	CodeCapacityExceeded   Code = "CapacityExceeded"
	CodeLaunchFailed       Code = "LaunchFailed"
	CodeElementNotFound    Code = "ElementNotFound"
	CodeEvaluationDisabled Code = "EvaluationDisabled"
	CodeUnsupportedBrowser Code = "UnsupportedBrowser"
	CodeURLBlocked         Code = "URLBlocked"
	CodeScriptUnsafe       Code = "ScriptUnsafe"
	CodeDownloadBlocked    Code = "DownloadBlocked"
	CodeUnknownProvider    Code = "UnknownProvider"
	CodeInvalidRequest     Code = "InvalidRequest"
	CodeCircuitOpen        Code = "CircuitOpen"
	CodeExecutionTimeout   Code = "ExecutionTimeout"
	CodeIllegalTransition  Code = "IllegalTransition"
	CodeProviderAuthFailed Code = "ProviderAuthFailed"
	CodeProviderQuota      Code = "ProviderQuotaExceeded"
	CodeProviderBadRequest Code = "ProviderBadRequest"
	CodeToolNotFound       Code = "ToolNotFound"
)

// Error is the structured error value that flows from component boundaries
// up to the run record and out over HTTP.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus returns the canonical status code for this error's Kind.
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New constructs a taxonomized error.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf is New with message formatting.
func Newf(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a taxonomy kind/code to an underlying error, preserving it
// for errors.Unwrap/errors.Is chains.
func Wrap(kind Kind, code Code, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Message: cause.Error(), cause: cause}
}

// WithDetails returns a copy of e with Details set.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// As extracts an *Error from err, if any is present in its chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf returns the taxonomy kind of err, defaulting to Internal when err
// does not carry one.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}

// IsFatalToRun reports whether an error of this kind always terminates the
// owning run rather than being retried (§7 propagation policy).
func IsFatalToRun(err error) bool {
	switch KindOf(err) {
	case PolicyViolation, BudgetExceeded, Timeout:
		return true
	default:
		return false
	}
}
