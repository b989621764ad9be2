// Package github creates repositories through the GitHub REST API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/internal/httpclient"
)

const (
	// DefaultBaseURL is the public GitHub API
	DefaultBaseURL = "https://api.github.com"
	// TokenEnvVar holds the personal access token
	TokenEnvVar = "GITHUB_TOKEN"

	requestTimeout = 30 * time.Second
	userAgent      = "go-service-cli/1.0"
	acceptHeader   = "application/vnd.github.v3+json"
)

// CreateRepoRequest describes a repository to create. An Owner of the form
// "org/user" creates the repository in org; any other owner creates it for
// the authenticated user.
type CreateRepoRequest struct {
	Name        string
	Description string
	Private     bool
	Owner       string
}

// Repository is the subset of the API response the CLI uses
type Repository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	CloneURL string `json:"clone_url"`
	SSHURL   string `json:"ssh_url"`
	Private  bool   `json:"private"`
}

type createRepoBody struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Private     bool    `json:"private"`
	AutoInit    bool    `json:"auto_init"`
}

type apiError struct {
	Message string `json:"message"`
}

// Client calls the GitHub API with a bearer token
type Client struct {
	http    *httpclient.Client
	token   string
	baseURL string
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API root (GitHub Enterprise, tests)
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client. The token must not be empty.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.Wrap(errors.ErrUnauthorized, "GitHub token cannot be empty")
	}
	c := &Client{
		http:    httpclient.New(requestTimeout, httpclient.Options{}),
		token:   token,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TokenFromEnv reads the token from GITHUB_TOKEN
func TokenFromEnv() (string, error) {
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return "", errors.WithHint(
			errors.Wrapf(errors.ErrUnauthorized, "%s environment variable not set", TokenEnvVar),
			"set it to a personal access token with the repo scope",
		)
	}
	return token, nil
}

// CreateRepository creates an empty repository
func (c *Client) CreateRepository(ctx context.Context, req CreateRepoRequest) (*Repository, error) {
	url := c.baseURL + "/user/repos"
	if org, _, ok := strings.Cut(req.Owner, "/"); ok {
		url = c.baseURL + "/orgs/" + org + "/repos"
	}

	body := createRepoBody{Name: req.Name, Private: req.Private}
	if req.Description != "" {
		body.Description = &req.Description
	}

	var repo Repository
	if err := c.do(ctx, http.MethodPost, url, body, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// AuthenticatedUser returns the login of the token's owner
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	var user struct {
		Login string `json:"login"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/user", nil, &user); err != nil {
		return "", err
	}
	return user.Login, nil
}

// CheckOwner verifies that the user part of owner ("user" or "org/user")
// is the token's owner. Repositories are always created with the token's
// identity, so a mismatch would land them in another account.
func (c *Client) CheckOwner(ctx context.Context, owner string) error {
	login, err := c.AuthenticatedUser(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to look up the token owner")
	}
	user := owner
	if _, u, ok := strings.Cut(owner, "/"); ok {
		user = u
	}
	if !strings.EqualFold(user, login) {
		return errors.WithHint(
			errors.NewInvalidRequestError("GitHub user %q does not own the token (authenticated as %q)", user, login),
			"pass --github-user "+login+" or use a token issued to "+user,
		)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request to GitHub API")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "failed to read GitHub API response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return errors.Newf("GitHub API error (%d): %s", resp.StatusCode, apiErr.Message)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "failed to parse GitHub API response")
	}
	return nil
}
