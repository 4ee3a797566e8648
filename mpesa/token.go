package mpesa

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// The cached token is retired this long before the gateway would expire it,
// so a call never starts with a token about to lapse mid-flight.
const tokenSafetyMargin = 5 * time.Minute

type tokenCache struct {
	mu        sync.Mutex
	value     string
	expiresAt time.Time
}

// GetToken returns the cached bearer token, refreshing it through a single
// shared exchange when expired. Concurrent callers hitting an expired cache
// wait on one in-flight refresh instead of each hitting the gateway.
func (c *Client) GetToken() (string, error) {
	if tok, ok := c.cachedToken(); ok {
		return tok, nil
	}

	v, err, _ := c.refreshGroup.Do("token", func() (any, error) {
		// A refresh that finished while this caller queued is still fresh.
		if tok, ok := c.cachedToken(); ok {
			return tok, nil
		}
		return c.exchangeCredentials()
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) cachedToken() (string, bool) {
	c.tokens.mu.Lock()
	defer c.tokens.mu.Unlock()
	if c.tokens.value != "" && c.now().Before(c.tokens.expiresAt) {
		return c.tokens.value, true
	}
	return "", false
}

func (c *Client) exchangeCredentials() (string, error) {
	if c.cfg.ConsumerKey == "" || c.cfg.ConsumerSecret == "" {
		return "", fmt.Errorf("mpesa consumer credentials are not set")
	}

	resp, err := c.http.R().
		SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret).
		SetHeader("Accept", "application/json").
		Get(c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials")
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token not found in response: %s", string(resp.Body()))
	}

	ttl := time.Hour
	if secs, err := strconv.Atoi(body.ExpiresIn); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	if ttl > tokenSafetyMargin {
		ttl -= tokenSafetyMargin
	} else {
		ttl /= 2
	}

	c.tokens.mu.Lock()
	c.tokens.value = body.AccessToken
	c.tokens.expiresAt = c.now().Add(ttl)
	c.tokens.mu.Unlock()

	return body.AccessToken, nil
}
