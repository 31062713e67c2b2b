package sandbox_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/pkg/sandbox"
)

func TestDaytonaExecutor_FullLifecycle(t *testing.T) {
	var created, ran, destroyed bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/sandboxes":
			created = true
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "sb-1"})
		case r.Method == http.MethodPost && r.URL.Path == "/sandboxes/sb-1/exec":
			ran = true
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"exit_code": 0, "stdout": "ok", "stderr": ""})
		case r.Method == http.MethodDelete && r.URL.Path == "/sandboxes/sb-1":
			destroyed = true
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	exec := sandbox.NewDaytonaExecutor(sandbox.DaytonaConfig{BaseURL: server.URL, APIKey: "secret"})

	handle, err := exec.CreateEphemeral(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sb-1", handle.ID)

	result, err := exec.Run(context.Background(), handle, "print('hi')", "", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "ok", result.Stdout)

	require.NoError(t, exec.Destroy(context.Background(), handle))

	assert.True(t, created)
	assert.True(t, ran)
	assert.True(t, destroyed)
}

func TestDaytonaExecutor_PreserveSandboxesSkipsDestroy(t *testing.T) {
	var destroyCalled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			destroyCalled = true
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	exec := sandbox.NewDaytonaExecutor(sandbox.DaytonaConfig{BaseURL: server.URL, APIKey: "k", PreserveSandboxes: true})

	err := exec.Destroy(context.Background(), sandbox.Handle{ID: "sb-1"})
	require.NoError(t, err)
	assert.False(t, destroyCalled)
}

func TestDaytonaExecutor_CreateFailureReturnsTypedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	exec := sandbox.NewDaytonaExecutor(sandbox.DaytonaConfig{BaseURL: server.URL, APIKey: "k"})

	_, err := exec.CreateEphemeral(context.Background())
	require.Error(t, err)

	sbErr, ok := err.(*sandbox.Error)
	require.True(t, ok)
	assert.Equal(t, sandbox.ErrCreateFailed, sbErr.Code)
}
