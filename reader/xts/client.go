// Package xts is the REST client for the XTS market-data API: the login
// handshake and the authenticated index-list fetch.
package xts

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	appconfig "masterflow/config"
	"masterflow/logger"
	"masterflow/models"
)

// Client talks to one XTS market-data deployment. A single login
// produces the bearer token used by every subsequent fetch; the token
// is held for the process lifetime and never refreshed.
type Client struct {
	config  *appconfig.Config
	creds   models.Credentials
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	mu      sync.RWMutex
	session *models.Session
	log     *logger.Log
}

// NewClient creates a Client for the resolved credentials. The base URL
// is normalized once here so request construction stays trivial.
func NewClient(cfg *appconfig.Config, creds models.Credentials) *Client {
	log := logger.GetLogger()

	httpClient := &http.Client{
		Timeout: cfg.Marketdata.HTTPTimeout(),
		Transport: userAgentTransport{
			agent: cfg.Masterflow.Name + "/" + cfg.Masterflow.Version,
			base:  http.DefaultTransport,
		},
	}

	burst := cfg.Marketdata.RateLimit.BurstSize
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		config:  cfg,
		creds:   creds,
		baseURL: NormalizeBaseURL(creds.BaseURL),
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.Marketdata.RateLimit.RequestsPerSecond), burst),
		log:     log,
	}

	log.WithComponent("xts_client").WithFields(logger.Fields{
		"base_url":   c.baseURL,
		"timeout":    cfg.Marketdata.HTTPTimeout(),
		"wire_shape": cfg.Marketdata.WireShape,
	}).Info("xts client initialized")

	return c
}

// BaseURL returns the normalized endpoint root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the current session, or nil before login.
func (c *Client) Session() *models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) setSession(s *models.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}
