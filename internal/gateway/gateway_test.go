package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/JuanManuel1970/dolar/internal/httpx"
	"github.com/stretchr/testify/require"
)

func testClient() *httpx.Client {
	return httpx.New(2 * time.Second)
}

func TestJSON_PrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer primary.Close()

	relayCalls := 0
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayCalls++
	}))
	defer relay.Close()

	g := New(testClient(), relay.URL+"/raw?url=", nil)
	body, err := g.JSON(context.Background(), primary.URL)
	require.NoError(t, err)
	require.JSONEq(t, `{"ok": true}`, string(body))
	require.Zero(t, relayCalls, "relay must not be hit when the primary succeeds")
}

func TestJSON_FallsBackOnStatus(t *testing.T) {
	t.Parallel()

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()

	var gotTarget string
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTarget = r.URL.Query().Get("url")
		_, _ = w.Write([]byte(`{"via": "relay"}`))
	}))
	defer relay.Close()

	g := New(testClient(), relay.URL+"/raw?url=", nil)
	body, err := g.JSON(context.Background(), primary.URL)
	require.NoError(t, err)
	require.JSONEq(t, `{"via": "relay"}`, string(body))
	require.Equal(t, primary.URL, gotTarget, "relay must receive the original URL escaped in the query")
}

func TestJSON_FallsBackOnNetworkError(t *testing.T) {
	t.Parallel()

	// A closed server yields a connection error on the primary attempt.
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead := primary.URL
	primary.Close()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"via": "relay"}`))
	}))
	defer relay.Close()

	g := New(testClient(), relay.URL+"/raw?url=", nil)
	body, err := g.JSON(context.Background(), dead)
	require.NoError(t, err)
	require.JSONEq(t, `{"via": "relay"}`, string(body))
}

func TestJSON_BothFail(t *testing.T) {
	t.Parallel()

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer relay.Close()

	g := New(testClient(), relay.URL+"/raw?url=", nil)
	_, err := g.JSON(context.Background(), primary.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "primary")
	require.Contains(t, err.Error(), "relay")
}

func TestJSON_NoRelayConfigured(t *testing.T) {
	t.Parallel()

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer primary.Close()

	g := New(testClient(), "", nil)
	_, err := g.JSON(context.Background(), primary.URL)
	require.Error(t, err)
}

func TestJSON_RejectsNonJSONBody(t *testing.T) {
	t.Parallel()

	calls := 0
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("url") != "" {
			// relay answering with an HTML error page
			_, _ = w.Write([]byte(`<html>busy</html>`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()

	g := New(testClient(), primary.URL+"/raw?url=", nil)
	_, err := g.JSON(context.Background(), primary.URL)
	require.Error(t, err)
	require.Equal(t, 2, calls)
}

func TestJSON_EscapesTargetURL(t *testing.T) {
	t.Parallel()

	// Connection-refused primary forces the relay path immediately.
	target := "http://127.0.0.1:1/v2/latest?x=1&y=2"
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, target, r.URL.Query().Get("url"))
		require.Contains(t, r.URL.RawQuery, url.QueryEscape(target))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer relay.Close()

	g := New(testClient(), relay.URL+"/raw?url=", nil)
	body, err := g.JSON(context.Background(), target)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(body))
}
