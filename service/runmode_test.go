package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBackReturnsHandleOnReady(t *testing.T) {
	handle, err := RunBack(time.Second).Start(func(ctx context.Context, markReady func()) error {
		markReady()
		<-ctx.Done()
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, handle)
	handle.Cancel()
	<-handle.Err
}

func TestRunBackTimesOutIfNeverReady(t *testing.T) {
	_, err := RunBack(20 * time.Millisecond).Start(func(ctx context.Context, markReady func()) error {
		<-ctx.Done()
		return nil
	})
	assert.Error(t, err)
}

func TestRunBackPropagatesEarlyError(t *testing.T) {
	_, err := RunBack(time.Second).Start(func(ctx context.Context, markReady func()) error {
		return assert.AnError
	})
	assert.Error(t, err)
}
