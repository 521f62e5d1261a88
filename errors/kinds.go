package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Error kind domains, used with WithDomain/GetDomain to classify errors
// raised by the framework without inventing a parallel error hierarchy.
const (
	DomainConfig     = crdb.Domain("config")
	DomainConnection = crdb.Domain("connection")
	DomainTimeout    = crdb.Domain("timeout")
	DomainAPI        = crdb.Domain("api")
	DomainBinding    = crdb.Domain("binding")
	DomainHandler    = crdb.Domain("handler")
	DomainDependency = crdb.Domain("dependency")
	DomainLifecycle  = crdb.Domain("lifecycle")
)

// ConfigError wraps err as a fatal configuration error, surfaced to the launcher.
func ConfigError(err error, format string, args ...interface{}) error {
	return WithDomain(Wrapf(err, format, args...), DomainConfig)
}

// ConnectionError wraps err as a gateway connection error: the socket could
// not open, or closed unexpectedly.
func ConnectionError(err error, format string, args ...interface{}) error {
	return WithDomain(Wrapf(err, format, args...), DomainConnection)
}

// TimeoutError reports that a send exceeded its deadline.
func TimeoutError(format string, args ...interface{}) error {
	return WithDomain(Newf(format, args...), DomainTimeout)
}

// APIError wraps a gateway response whose retcode was non-zero. Code and
// message come from the gateway's own response envelope.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

// NewAPIError builds a structured API error and tags it with DomainAPI so
// callers can distinguish it from transport-level failures via GetDomain.
func NewAPIError(code int, message string) error {
	return WithDomain(&APIError{Code: code, Message: message}, DomainAPI)
}

// BindingError wraps a parameter-binding failure. Binding errors never
// propagate to the command handler; the dispatcher publishes them as a
// param_bind_failed event instead.
func BindingError(err error, format string, args ...interface{}) error {
	return WithDomain(Wrapf(err, format, args...), DomainBinding)
}

// HandlerError wraps a panic or error recovered from a user event handler.
// Handler errors are logged with their stack trace and never propagate to
// sibling handlers or kill the dispatch loop.
func HandlerError(err error, format string, args ...interface{}) error {
	return WithDomain(Wrapf(err, format, args...), DomainHandler)
}

// DependencyError wraps a plugin dependency resolution failure: missing,
// unsatisfied, or version-mismatched. Fatal for the dependent plugin only.
func DependencyError(err error, format string, args ...interface{}) error {
	return WithDomain(Wrapf(err, format, args...), DomainDependency)
}

// LifecycleError wraps a panic or error from a plugin's on_load/on_close
// hook. A LifecycleError from on_load causes the loader to unregister the
// partially-initialized plugin.
func LifecycleError(err error, format string, args ...interface{}) error {
	return WithDomain(Wrapf(err, format, args...), DomainLifecycle)
}
