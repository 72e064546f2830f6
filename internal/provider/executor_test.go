package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

func TestExecutor_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	x := NewExecutor(time.Second, nil)
	body, err := x.Execute(context.Background(), NewGetRequest(srv.URL, nil), 0)
	require.Nil(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestExecutor_PutSendsJSONBody(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	req := NewPutRequest(srv.URL, map[string]string{"X-ELS-APIKey": "k"},
		map[string]interface{}{"qs": "(solar)"})
	x := NewExecutor(time.Second, nil)
	_, err := x.Execute(context.Background(), req, 0)
	require.Nil(t, err)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"qs":"(solar)"}`, gotBody)
}

func TestExecutor_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	x := NewExecutor(time.Second, nil)
	_, err := x.Execute(context.Background(), NewGetRequest(srv.URL, nil), 0)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.ErrCodeProviderHTTP, err.Code)
	assert.Equal(t, "HTTP error: 404 Not Found", err.Message)
}

func TestExecutor_HTTPErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	x := NewExecutor(time.Second, nil)
	_, err := x.Execute(context.Background(), NewGetRequest(srv.URL, nil), 3)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.ErrCodeProviderHTTP, err.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExecutor_TimeoutRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	x := NewExecutor(20*time.Millisecond, nil)
	_, err := x.Execute(context.Background(), NewGetRequest(srv.URL, nil), 2)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.ErrCodeProviderTimeout, err.Code)
	assert.Equal(t, "Connection error: Failed to establish a connection: Timeout.", err.Message)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExecutor_ConnectionError(t *testing.T) {
	// A server that is immediately closed leaves a port nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	x := NewExecutor(time.Second, nil)
	_, err := x.Execute(context.Background(), NewGetRequest(url, nil), 0)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.ErrCodeProviderConnection, err.Code)
	assert.Equal(t, "Connection error: Failed to establish a connection: Name or service not known.", err.Message)
}

func TestExecutor_HeadersForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-ELS-APIKey"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	req := NewGetRequest(srv.URL, map[string]string{
		"X-ELS-APIKey": "secret",
		"Accept":       "application/json",
	})
	x := NewExecutor(time.Second, nil)
	_, err := x.Execute(context.Background(), req, 0)
	require.Nil(t, err)
}
