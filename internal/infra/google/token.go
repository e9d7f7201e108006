package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"delivery-scheduler/internal/pkg/errs"

	"golang.org/x/oauth2"
)

const jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// Response bodies beyond this size are truncated in APIError.
const maxErrorBody = 4 << 10

var ErrMissingAccessToken = errs.New("token response has no access_token")

// APIError is returned for any non-2xx provider response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider responded %d: %s", e.StatusCode, e.Body)
}

type TokenClient struct {
	httpClient *http.Client
	tokenURI   string
}

func NewTokenClient(httpClient *http.Client, tokenURI string) *TokenClient {
	return &TokenClient{httpClient: httpClient, tokenURI: tokenURI}
}

// Exchange trades a signed assertion for a bearer access token.
func (c *TokenClient) Exchange(ctx context.Context, assertion string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", jwtBearerGrantType)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errs.Wrap(err, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errs.Wrap(err, "token request")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var body oauth2.Token
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errs.Wrap(err, "decode token response")
	}
	if body.AccessToken == "" {
		return "", ErrMissingAccessToken
	}
	return body.AccessToken, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
}
