package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Connection interface {
	Request(ctx context.Context, endpoint *url.URL) (*http.Response, error)
}

type ClientHost struct {
	client    *http.Client
	scheme    string
	host      string
	userAgent string
}

type Client struct {
	Connection Connection
	ApiKey     string
}

func (conn *ClientHost) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	endpoint.Scheme = conn.scheme
	endpoint.Host = conn.host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building request for %s: %w", conn.host, err)
	}
	if conn.userAgent != "" {
		req.Header.Set("User-Agent", conn.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	return conn.client.Do(req)
}

// ClientFactory builds a client that talks https to host.
func ClientFactory(host string, apiKey string, timeout time.Duration) *Client {
	return NewClient(&url.URL{Scheme: "https", Host: host}, apiKey, timeout, "")
}

// NewClient builds a client against an arbitrary base url, tests point this at an httptest server.
func NewClient(base *url.URL, apiKey string, timeout time.Duration, userAgent string) *Client {
	client := &http.Client{
		Timeout: timeout,
	}

	clientHost := &ClientHost{
		client:    client,
		scheme:    base.Scheme,
		host:      base.Host,
		userAgent: userAgent,
	}

	return &Client{
		Connection: clientHost,
		ApiKey:     apiKey,
	}
}
