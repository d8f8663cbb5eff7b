package remote

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 16 << 20
)

// Transport is the injected HTTP surface. Each call receives a full URL and
// returns the response body.
type Transport struct {
	Get       func(url string) (string, error)
	Post      func(url, body string) (string, error)
	PostEmpty func(url string) (string, error)
}

func (t Transport) validate() error {
	if t.Get == nil || t.Post == nil || t.PostEmpty == nil {
		return fmt.Errorf("remote: transport requires get, post and post-empty calls")
	}
	return nil
}

// NewHTTPTransport adapts an http.Client. A nil client gets a ten second
// timeout. Non-2xx statuses are returned as errors carrying the body.
func NewHTTPTransport(client *http.Client) Transport {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	do := func(method, url string, body io.Reader) (string, error) {
		request, err := http.NewRequest(method, url, body)
		if err != nil {
			return "", fmt.Errorf("remote: build request: %w", err)
		}
		if body != nil {
			request.Header.Set("Content-Type", "application/json")
		}
		response, err := client.Do(request)
		if err != nil {
			return "", fmt.Errorf("remote: %s %s: %w", method, url, err)
		}
		defer response.Body.Close()
		payload, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
		if err != nil {
			return "", fmt.Errorf("remote: read %s: %w", url, err)
		}
		if response.StatusCode < 200 || response.StatusCode > 299 {
			return "", fmt.Errorf("remote: %s %s: status %d: %s", method, url, response.StatusCode, strings.TrimSpace(string(payload)))
		}
		return string(payload), nil
	}
	return Transport{
		Get: func(url string) (string, error) {
			return do(http.MethodGet, url, nil)
		},
		Post: func(url, body string) (string, error) {
			return do(http.MethodPost, url, bytes.NewBufferString(body))
		},
		PostEmpty: func(url string) (string, error) {
			return do(http.MethodPost, url, nil)
		},
	}
}
