package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRESTJSONAnalyzeSuccess(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)

		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"classification": "note", "insights": ["looks fine"]}`))
	}))
	defer srv.Close()

	a, err := NewRESTJSONAnalyzer("rest", srv.URL, "secret")
	require.NoError(t, err)

	result, err := a.Analyze(context.Background(), "hello world", []string{"earlier note"})
	require.NoError(t, err)

	assert.Equal(t, "note", result.Classification)
	assert.Equal(t, []string{"looks fine"}, result.Insights)

	assert.Equal(t, "hello world", gjson.Get(gotBody, "content").String())
	assert.Equal(t, "earlier note", gjson.Get(gotBody, "recent_context.0").String())
}

func TestRESTJSONAnalyzeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a, err := NewRESTJSONAnalyzer("rest", srv.URL, "")
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), "hello", nil)
	require.Error(t, err)

	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, http.StatusServiceUnavailable, callErr.StatusCode)
	assert.True(t, IsRetryable(err))
}

func TestRESTJSONAnalyzeEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a, err := NewRESTJSONAnalyzer("rest", srv.URL, "")
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), "hello", nil)
	assert.Error(t, err)
}

func TestRESTJSONConstructorValidation(t *testing.T) {
	_, err := NewRESTJSONAnalyzer("", "http://x", "")
	assert.Error(t, err)

	_, err = NewRESTJSONAnalyzer("rest", "", "")
	assert.Error(t, err)
}

func TestRESTJSONAnalyzeContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	a, err := NewRESTJSONAnalyzer("rest", srv.URL, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = a.Analyze(ctx, "hello", nil)
	assert.Error(t, err)
}
