package http

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func testServerConfig(addr string) *ServerConfig {
	cfg := DefaultServerConfig()
	cfg.Addr = addr
	cfg.ShutdownTimeout = 2 * time.Second
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func TestServer_StartAndShutdown(t *testing.T) {
	router := gin.New()
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	addr := freeAddr(t)
	server := NewServer(testServerConfig(addr), router)

	done := make(chan error, 1)
	go func() {
		done <- server.Start()
	}()

	// Ждём пока сервер поднимется
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, server.Shutdown(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after shutdown")
	}
}

func TestServer_RunWithContextStopsOnCancel(t *testing.T) {
	router := gin.New()
	server := NewServer(testServerConfig(freeAddr(t)), router)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.RunWithContext(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()

	assert.Equal(t, "0.0.0.0:8000", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.NotNil(t, cfg.Logger)
}
