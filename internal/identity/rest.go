package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// restClient talks to the Identity Toolkit REST API for the operations
// the Admin SDK does not offer (password verification, OOB email send).
type restClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func newRESTClient(apiKey string) *restClient {
	return &restClient{
		BaseURL: identityToolkitURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type restAccount struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

type restError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *restClient) signInWithPassword(ctx context.Context, email, password string) (*restAccount, error) {
	return c.accountCall(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (c *restClient) signUp(ctx context.Context, email, password string) (*restAccount, error) {
	return c.accountCall(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (c *restClient) sendVerificationEmail(ctx context.Context, idToken string) error {
	_, err := c.accountCall(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     idToken,
	})
	return err
}

func (c *restClient) accountCall(ctx context.Context, endpoint string, body map[string]any) (*restAccount, error) {
	b, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/%s?key=%s", c.BaseURL, endpoint, c.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr restError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return nil, ErrUnknown
		}
		return nil, mapProviderCode(trimProviderCode(apiErr.Error.Message))
	}

	var acct restAccount
	if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
		return nil, fmt.Errorf("identitytoolkit decode: %w", err)
	}
	return &acct, nil
}

// trimProviderCode strips the detail suffix some codes carry, e.g.
// "WEAK_PASSWORD : Password should be at least 6 characters".
func trimProviderCode(msg string) string {
	if i := strings.IndexAny(msg, " :"); i > 0 {
		return msg[:i]
	}
	return msg
}
