package erp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/citypaints/erp-sync/internal/domain/erp"
	"github.com/citypaints/erp-sync/internal/infrastructure/config"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 32 * 1024 * 1024 // 32MB max response

	// maxAttempts is the initial request plus one retry after a 401
	maxAttempts = 2

	loginEndpoint   = "authentication/login"
	refreshEndpoint = "authentication/refresh"
)

// authResponse is the body of the login and refresh endpoints.
type authResponse struct {
	AccessToken  string `json:"AccessToken"`
	RefreshToken string `json:"RefreshToken"`
	ExpiresIn    int64  `json:"ExpiresIn"`
}

// Client is the authenticated HTTP client for the ERP API. It owns the token
// lifecycle: a missing token triggers authentication before the request, and
// a 401 response clears the cached token and retries exactly once with a
// fresh one.
type Client struct {
	baseURL    string
	apiKey     string
	username   string
	password   string
	tokens     erp.TokenStore
	httpClient *http.Client
	authClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an ERP API client from configuration. It fails with
// erp.ErrMissingCredentials when the connection settings are incomplete.
func NewClient(cfg *config.ERPConfig, tokens erp.TokenStore, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Configured() {
		return nil, erp.ErrMissingCredentials
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var transport http.RoundTripper
	if cfg.InsecureSkipVerify {
		logger.Warn("TLS certificate verification disabled for ERP API",
			zap.String("base_url", cfg.BaseURL))
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/") + "/",
		apiKey:   cfg.APIKey,
		username: cfg.Username,
		password: cfg.Password,
		tokens:   tokens,
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		authClient: &http.Client{
			Timeout:   cfg.AuthTimeout,
			Transport: transport,
		},
		logger: logger.Named("erp"),
	}, nil
}

// Get performs an authenticated GET request and decodes the JSON response.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.request(ctx, http.MethodGet, endpoint, params, nil, out)
}

// Post performs an authenticated POST request with a JSON body and decodes
// the JSON response.
func (c *Client) Post(ctx context.Context, endpoint string, body any, out any) error {
	return c.request(ctx, http.MethodPost, endpoint, nil, body, out)
}

// request runs the attempt loop: at most one retry, and only for a 401.
func (c *Client) request(ctx context.Context, method, endpoint string, params url.Values, body any, out any) error {
	reqURL := c.baseURL + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("erp: failed to marshal request body: %w", err)
		}
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		status, raw, err := c.do(ctx, method, reqURL, bodyBytes, token)
		if err != nil {
			return &erp.APIError{
				Code:    erp.ErrCodeTransport,
				Message: err.Error(),
				Err:     err,
			}
		}

		// Unauthorized on the first attempt: drop the cached token, refresh
		// or re-login, and retry with the fresh token.
		if status == http.StatusUnauthorized && attempt == 0 {
			c.logger.Warn("ERP returned 401, refreshing token",
				zap.String("endpoint", endpoint))
			if err := c.tokens.ClearAccessToken(ctx); err != nil {
				return fmt.Errorf("erp: failed to clear token: %w", err)
			}
			token, err = c.authenticate(ctx)
			if err != nil {
				return err
			}
			continue
		}

		var parsed any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &parsed); err != nil {
				return &erp.APIError{
					Code:       erp.ErrCodeInvalidJSON,
					Message:    "invalid JSON from API",
					StatusCode: status,
					RawBody:    string(raw),
					Err:        err,
				}
			}
		}

		if status >= 200 && status < 300 {
			if out != nil && len(raw) > 0 {
				if err := json.Unmarshal(raw, out); err != nil {
					return &erp.APIError{
						Code:       erp.ErrCodeInvalidJSON,
						Message:    "unexpected response shape",
						StatusCode: status,
						RawBody:    string(raw),
						Err:        err,
					}
				}
			}
			return nil
		}

		return &erp.APIError{
			Code:       erp.ErrCodeHTTP,
			Message:    fmt.Sprintf("API returned HTTP %d", status),
			StatusCode: status,
			Body:       parsed,
			RawBody:    string(raw),
		}
	}

	return erp.NewAPIError(erp.ErrCodeFallback, "API request failed")
}

// do performs one HTTP round trip and returns the status and raw body.
func (c *Client) do(ctx context.Context, method, reqURL string, body []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, raw, nil
}

// ensureToken returns the cached access token, authenticating when the store
// has none.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("erp: failed to read token: %w", err)
	}
	if token != "" {
		return token, nil
	}
	return c.authenticate(ctx)
}

// authenticate obtains a fresh access token: a refresh attempt when a refresh
// token exists, then a full login. A failed refresh clears both tokens before
// the login fallback.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	refreshToken, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("erp: failed to read refresh token: %w", err)
	}

	if refreshToken != "" {
		existing, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return "", fmt.Errorf("erp: failed to read token: %w", err)
		}

		token, ok := c.tryRefresh(ctx, existing, refreshToken)
		if ok {
			return token, nil
		}

		// Failed refresh invalidates both tokens.
		if err := c.tokens.ClearAll(ctx); err != nil {
			return "", fmt.Errorf("erp: failed to clear tokens: %w", err)
		}
	}

	return c.login(ctx)
}

// tryRefresh exchanges the refresh token for a new access token. Any failure
// reports ok=false; the caller falls back to login.
func (c *Client) tryRefresh(ctx context.Context, accessToken, refreshToken string) (string, bool) {
	body, err := json.Marshal(map[string]string{
		"AccessToken":  accessToken,
		"RefreshToken": refreshToken,
	})
	if err != nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.authClient.Do(req)
	if err != nil {
		c.logger.Warn("token refresh request failed", zap.Error(err))
		return "", false
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", false
	}

	var auth authResponse
	if resp.StatusCode != http.StatusOK || json.Unmarshal(raw, &auth) != nil || auth.AccessToken == "" {
		c.logger.Warn("token refresh rejected", zap.Int("status", resp.StatusCode))
		return "", false
	}

	if err := c.saveTokens(ctx, &auth); err != nil {
		c.logger.Warn("failed to persist refreshed token", zap.Error(err))
		return "", false
	}

	return auth.AccessToken, true
}

// login performs the full credential login.
func (c *Client) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"UserName": c.username,
		"Password": c.password,
	})
	if err != nil {
		return "", fmt.Errorf("erp: failed to marshal login body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("erp: failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.authClient.Do(req)
	if err != nil {
		return "", &erp.APIError{
			Code:    erp.ErrCodeTransport,
			Message: "login request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &erp.APIError{
			Code:    erp.ErrCodeTransport,
			Message: "failed to read login response",
			Err:     err,
		}
	}

	var auth authResponse
	if resp.StatusCode != http.StatusOK || json.Unmarshal(raw, &auth) != nil || auth.AccessToken == "" {
		return "", &erp.APIError{
			Code:       erp.ErrCodeAuthFailed,
			Message:    "failed to get token",
			StatusCode: resp.StatusCode,
			RawBody:    string(raw),
			Err:        erp.ErrAuthFailed,
		}
	}

	if err := c.saveTokens(ctx, &auth); err != nil {
		return "", fmt.Errorf("erp: failed to persist token: %w", err)
	}

	return auth.AccessToken, nil
}

// saveTokens persists the access token (with the ERP-reported lifetime) and,
// when present, the rotated refresh token.
func (c *Client) saveTokens(ctx context.Context, auth *authResponse) error {
	expiresIn := auth.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	if err := c.tokens.SaveAccessToken(ctx, auth.AccessToken, time.Duration(expiresIn)*time.Second); err != nil {
		return err
	}
	if auth.RefreshToken != "" {
		if err := c.tokens.SaveRefreshToken(ctx, auth.RefreshToken); err != nil {
			return err
		}
	}
	return nil
}
