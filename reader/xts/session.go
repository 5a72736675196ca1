package xts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"masterflow/logger"
	"masterflow/models"
)

type loginRequest struct {
	AppKey    string `json:"appKey"`
	SecretKey string `json:"secretKey"`
	Source    string `json:"source"`
}

type loginResponse struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Result      struct {
		Token  string `json:"token"`
		UserID string `json:"userID"`
	} `json:"result"`
}

// Login performs the session handshake against {base}/auth/login. Any
// failure is terminal for the run; there is no retry.
func (c *Client) Login(ctx context.Context) (*models.Session, error) {
	log := c.log.WithComponent("xts_client").WithFields(logger.Fields{"operation": "login"})

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("login rate limit wait: %w", err)
	}

	payload, err := json.Marshal(loginRequest{
		AppKey:    c.creds.APIKey,
		SecretKey: c.creds.SecretKey,
		Source:    c.creds.Source,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal login request: %w", err)
	}

	url := c.baseURL + "/auth/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.WithFields(logger.Fields{"url": url, "api_key": c.creds.MaskedAPIKey()}).Info("logging in to marketdata api")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("decode login response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || body.Type != "success" {
		return nil, &APIError{Status: resp.StatusCode, Type: body.Type, Description: body.Description}
	}

	if body.Result.Token == "" {
		return nil, &APIError{Status: resp.StatusCode, Type: body.Type, Description: "login response missing token"}
	}

	session := &models.Session{
		Token:         body.Result.Token,
		UserID:        body.Result.UserID,
		Authenticated: true,
	}
	c.setSession(session)

	fields := logger.Fields{}
	if session.UserID != "" {
		fields["user_id"] = session.UserID
	}
	log.WithFields(fields).Info("login successful")
	logger.IncrementLogin()

	return session, nil
}
