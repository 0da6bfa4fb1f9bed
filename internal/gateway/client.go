package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ludo-gateway/internal/models"
)

// tokenHeader carries the bearer token out-of-band on the login response.
const tokenHeader = "New-Access-Token"

// APIError is the typed failure for any non-2xx backend response. Callers
// decide whether to retry (reactive triggers) or surface a runtime error.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed: %d %s", e.Status, e.Body)
}

// Client is the single entry point for backend calls. It attaches bearer
// auth when a call asks for it, reading the current token through the
// tokenSource so the session machine stays the only writer of auth state.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource func() string
}

func NewClient(baseURL string, tokenSource func() string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		tokenSource: tokenSource,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any, authenticated bool) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		token := c.tokenSource()
		if token == "" {
			return fmt.Errorf("authentication required but no token available")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: string(text)}
	}

	if out == nil {
		return nil
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}

// Nonce requests a single-use sign-in nonce. Nonces expire server-side, so a
// failed login never needs to roll one back.
func (c *Client) Nonce(ctx context.Context) (string, error) {
	var resp models.NonceResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/nonce", nil, &resp, false); err != nil {
		return "", err
	}
	return resp.Nonce, nil
}

// Login exchanges a signed message for an identity and a bearer token. The
// token arrives in a response header rather than the JSON body.
func (c *Client) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal login request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/farcaster", bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build login request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return nil, "", &APIError{Status: resp.StatusCode, Body: string(text)}
	}

	var user models.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, "", fmt.Errorf("failed to decode login response: %v", err)
	}

	token := resp.Header.Get(tokenHeader)
	if token == "" {
		return nil, "", fmt.Errorf("no token received from server")
	}

	return &user, token, nil
}

// VerifyToken checks the stored bearer token against the backend. Any error,
// including transport failure, is treated by the caller as invalid.
func (c *Client) VerifyToken(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/auth/verify", nil, nil, true)
}

func (c *Client) StartRound(ctx context.Context, req *models.RoundStartRequest) (*models.RoundStartResponse, error) {
	var resp models.RoundStartResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/game/start", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) FinalizeRound(ctx context.Context, req *models.RoundFinalRequest) (*models.RoundFinalResponse, error) {
	var resp models.RoundFinalResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/game/final", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Profile(ctx context.Context) (*models.ProfileResponse, error) {
	var resp models.ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/user/me", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Leaderboard(ctx context.Context) (*models.LeaderboardResponse, error) {
	var resp models.LeaderboardResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/leaderboard/", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) History(ctx context.Context) ([]models.HistoryPosition, error) {
	var resp []models.HistoryPosition
	if err := c.do(ctx, http.MethodGet, "/api/v1/history/positions", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) OnboardingCheck(ctx context.Context) (*models.OnboardingCheckResponse, error) {
	var resp models.OnboardingCheckResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tutorial/completion_check", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) OnboardingComplete(ctx context.Context) (*models.OnboardingCompletedResponse, error) {
	var resp models.OnboardingCompletedResponse
	payload := map[string]string{"lang": "en"}
	if err := c.do(ctx, http.MethodPost, "/api/v1/tutorial/completed", payload, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}
