package client

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/criteo/guestgate/internal/apierrors"
	"github.com/criteo/guestgate/internal/client/auth"
)

// Client wraps HTTP client for guestgate API calls
type Client struct {
	BaseURL    string
	Credential auth.Credential
	HTTPClient *http.Client
	Verbose    bool
}

// NewClient creates a new API client. Redirects are never followed so
// guard and login redirects stay visible to callers.
func NewClient(baseURL string, cred auth.Credential, timeout time.Duration, verbose bool) *Client {
	return &Client{
		BaseURL:    baseURL,
		Credential: cred,
		HTTPClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Verbose: verbose,
	}
}

// doRequest executes an HTTP request with authentication
func (c *Client) doRequest(method, path, contentType string, body io.Reader) (*http.Response, error) {
	target := c.BaseURL + path
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	switch {
	case c.Credential.Basic != "":
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.Credential.Basic)))
	case c.Credential.Session != "":
		req.Header.Set("Cookie", c.Credential.Session)
	}

	if c.Verbose {
		fmt.Fprintf(os.Stderr, "[DEBUG] %s %s\n", method, target)
	}

	return c.HTTPClient.Do(req)
}

// Get executes a GET request
func (c *Client) Get(path string) (*http.Response, error) {
	return c.doRequest(http.MethodGet, path, "", nil)
}

// Post executes a POST request without a body
func (c *Client) Post(path string) (*http.Response, error) {
	return c.doRequest(http.MethodPost, path, "", nil)
}

// PostForm executes a form-encoded POST request
func (c *Client) PostForm(path string, values url.Values) (*http.Response, error) {
	return c.doRequest(http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
}

// GetJSON executes a GET request and decodes a 2xx JSON body into out.
// Non-2xx responses are returned as *APIError.
func (c *Client) GetJSON(path string, out any) error {
	resp, err := c.Get(path)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// PostJSON executes a POST request and decodes a 2xx JSON body into out
func (c *Client) PostJSON(path string, out any) error {
	resp, err := c.Post(path)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// Login submits the login form and returns the issued session cookie as
// "name=value"
func (c *Client) Login(username, password string) (string, error) {
	resp, err := c.PostForm("/login", url.Values{
		"username": {username},
		"password": {password},
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		return "", &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Value != "" && cookie.MaxAge >= 0 {
			return cookie.Name + "=" + cookie.Value, nil
		}
	}
	return "", fmt.Errorf("server did not issue a session cookie")
}

// APIError is a non-2xx API response
type APIError struct {
	StatusCode int
	Code       apierrors.ErrorCode
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp apierrors.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Code != "" {
			apiErr.Code = errResp.Error.Code
			apiErr.Message = errResp.Error.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
