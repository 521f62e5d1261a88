package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError(t *testing.T) {
	err := ConfigError(New("bad value"), "token for %s", "ws_uri")
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "token for ws_uri")
	assert.Equal(t, DomainConfig, GetDomain(err))
}

func TestConnectionError(t *testing.T) {
	err := ConnectionError(New("dial failed"), "connecting to %s", "gateway")
	assert.Equal(t, DomainConnection, GetDomain(err))
}

func TestTimeoutError(t *testing.T) {
	err := TimeoutError("send exceeded %s deadline", "5s")
	assert.Equal(t, DomainTimeout, GetDomain(err))
	assert.Contains(t, err.Error(), "5s")
}

func TestNewAPIError(t *testing.T) {
	err := NewAPIError(100, "invalid group id")
	require.NotNil(t, err)
	assert.Equal(t, DomainAPI, GetDomain(err))
	assert.Contains(t, err.Error(), "invalid group id")

	var apiErr *APIError
	require.True(t, As(err, &apiErr))
	assert.Equal(t, 100, apiErr.Code)
}

func TestBindingError(t *testing.T) {
	err := BindingError(New("missing required parameter"), "binding %s", "port")
	assert.Equal(t, DomainBinding, GetDomain(err))
}

func TestHandlerError(t *testing.T) {
	err := HandlerError(New("panic recovered"), "handler %s", "on_message")
	assert.Equal(t, DomainHandler, GetDomain(err))
}

func TestDependencyError(t *testing.T) {
	err := DependencyError(New("version mismatch"), "plugin %s", "economy")
	assert.Equal(t, DomainDependency, GetDomain(err))
}

func TestLifecycleError(t *testing.T) {
	err := LifecycleError(New("on_load panicked"), "plugin %s", "economy")
	assert.Equal(t, DomainLifecycle, GetDomain(err))
}
