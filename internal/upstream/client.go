package upstream

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Client wraps the remote learning-platform API. One method per remote
// operation; every method is a single request with no retry or backoff,
// and all consistency is delegated to the platform.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRedirectPolicy(resty.NoRedirectPolicy())

	return &Client{
		http: httpClient,
		log:  log,
	}
}
