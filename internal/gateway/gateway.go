// Package gateway fetches JSON documents for the tracker. A request goes to
// the primary URL first; when that fails (network error or non-2xx status)
// it is retried exactly once through a public CORS relay. There is no
// backoff and no further retry: the next user selection triggers the next
// attempt.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/JuanManuel1970/dolar/internal/httpx"
	"go.uber.org/zap"
)

// DefaultProxyURL is the relay prefix the target URL is appended to,
// query-escaped. The relay is assumed to pass the body through unwrapped.
const DefaultProxyURL = "https://api.allorigins.win/raw?url="

const defaultMaxBody = 4 << 20

type Gateway struct {
	Client   *httpx.Client
	ProxyURL string // empty disables the fallback
	MaxBody  int64
	Log      *zap.Logger
}

func New(client *httpx.Client, proxyURL string, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{Client: client, ProxyURL: proxyURL, Log: log}
}

// JSON GETs rawURL and returns the response body, falling back to the relay
// when the primary attempt fails. The body must be valid JSON; a relay that
// answers with an HTML error page is treated as a failed attempt.
func (g *Gateway) JSON(ctx context.Context, rawURL string) (json.RawMessage, error) {
	body, err := g.get(ctx, rawURL)
	if err == nil {
		return body, nil
	}
	if g.ProxyURL == "" {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	g.Log.Warn("primary fetch failed, retrying through relay",
		zap.String("url", rawURL), zap.Error(err))

	body, rerr := g.get(ctx, g.ProxyURL+url.QueryEscape(rawURL))
	if rerr != nil {
		return nil, fmt.Errorf("fetch %s: primary: %v; relay: %w", rawURL, err, rerr)
	}
	return body, nil
}

func (g *Gateway) get(ctx context.Context, u string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.Client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s -> %d", u, resp.StatusCode)
	}

	max := g.MaxBody
	if max <= 0 {
		max = defaultMaxBody
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, max))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("GET %s: response is not JSON", u)
	}
	return body, nil
}
