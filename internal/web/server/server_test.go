package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig(okHandler())

	assert.Equal(t, ":8080", config.Address)
	assert.Equal(t, 15*time.Second, config.ReadTimeout)
	assert.Equal(t, 15*time.Second, config.WriteTimeout)
	assert.Equal(t, 60*time.Second, config.IdleTimeout)
	assert.Equal(t, 30*time.Second, config.ShutdownTimeout)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorContains(t, err, "config cannot be nil")

	_, err = New(DefaultConfig(nil), nil)
	assert.ErrorContains(t, err, "handler cannot be nil")
}

func TestRunAndShutdown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	config := DefaultConfig(okHandler())
	config.Address = "127.0.0.1:0"
	config.ShutdownTimeout = 5 * time.Second

	srv, err := New(config, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	hookRan := make(chan struct{})
	srv.RegisterHook(func(ctx context.Context) error {
		close(hookRan)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}

	<-hookRan
	assert.Equal(t, 1, logs.FilterMessage("server stopped").Len())
}

func TestRunListenError(t *testing.T) {
	config := DefaultConfig(okHandler())
	config.Address = "127.0.0.1:-1"

	srv, err := New(config, nil)
	require.NoError(t, err)
	assert.ErrorContains(t, srv.Run(context.Background()), "failed to create listener")
}
