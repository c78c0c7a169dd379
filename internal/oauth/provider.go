package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tilapp/til/internal/config"
)

// Provider names
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// Identity is the account information returned by a provider.
// Subject is the provider's stable account id; the username may change.
type Identity struct {
	Subject  string
	Name     string
	Username string
	Email    string
}

// Endpoints are the provider URLs used during the flow
type Endpoints struct {
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// Provider performs the authorization code flow against one provider
type Provider struct {
	name       string
	cfg        config.OAuthProviderConfig
	endpoints  Endpoints
	scopes     []string
	httpClient *http.Client
	authHeader func(accessToken string) string
	identity   func(body []byte) (*Identity, error)
}

// NewGoogle creates the Google provider
func NewGoogle(cfg config.OAuthProviderConfig, endpoints Endpoints, httpClient *http.Client) *Provider {
	if endpoints == (Endpoints{}) {
		endpoints = Endpoints{
			AuthURL:     "https://accounts.google.com/o/oauth2/auth",
			TokenURL:    "https://oauth2.googleapis.com/token",
			UserInfoURL: "https://www.googleapis.com/oauth2/v1/userinfo?alt=json",
		}
	}
	return &Provider{
		name:       ProviderGoogle,
		cfg:        cfg,
		endpoints:  endpoints,
		scopes:     []string{"profile", "email"},
		httpClient: orDefault(httpClient),
		authHeader: func(accessToken string) string { return "Bearer " + accessToken },
		identity:   googleIdentity,
	}
}

// NewGitHub creates the GitHub provider
func NewGitHub(cfg config.OAuthProviderConfig, endpoints Endpoints, httpClient *http.Client) *Provider {
	if endpoints == (Endpoints{}) {
		endpoints = Endpoints{
			AuthURL:     "https://github.com/login/oauth/authorize",
			TokenURL:    "https://github.com/login/oauth/access_token",
			UserInfoURL: "https://api.github.com/user",
		}
	}
	return &Provider{
		name:       ProviderGitHub,
		cfg:        cfg,
		endpoints:  endpoints,
		scopes:     []string{"read:user"},
		httpClient: orDefault(httpClient),
		authHeader: func(accessToken string) string { return "token " + accessToken },
		identity:   githubIdentity,
	}
}

func orDefault(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}

// Name returns the provider name
func (p *Provider) Name() string {
	return p.name
}

// CallbackPath returns the path component of the configured callback URL
func (p *Provider) CallbackPath() string {
	u, err := url.Parse(p.cfg.CallbackURL)
	if err != nil || u.Path == "" {
		return "/oauth/" + p.name
	}
	return u.Path
}

// AuthCodeURL returns the provider page the browser is redirected to
func (p *Provider) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.CallbackURL)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(p.scopes, " "))
	q.Set("state", state)

	sep := "?"
	if strings.Contains(p.endpoints.AuthURL, "?") {
		sep = "&"
	}
	return p.endpoints.AuthURL + sep + q.Encode()
}

// Authenticate exchanges an authorization code and fetches the account behind it
func (p *Provider) Authenticate(ctx context.Context, code string) (*Identity, error) {
	if code == "" {
		return nil, fmt.Errorf("%s: missing authorization code", p.name)
	}

	accessToken, err := p.exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	return p.fetchIdentity(ctx, accessToken)
}

func (p *Provider) exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", p.cfg.CallbackURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoints.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, err := p.do(req)
	if err != nil {
		return "", fmt.Errorf("%s token exchange: %w", p.name, err)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("%s token exchange: %w", p.name, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%s token exchange: no access token (%s)", p.name, token.Error)
	}
	return token.AccessToken, nil
}

func (p *Provider) fetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoints.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.authHeader(accessToken))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "til")

	body, err := p.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s user info: %w", p.name, err)
	}
	return p.identity(body)
}

func (p *Provider) do(req *http.Request) ([]byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return body, nil
}

func googleIdentity(body []byte) (*Identity, error) {
	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("google user info: %w", err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("google user info: missing id")
	}
	if info.Email == "" {
		return nil, fmt.Errorf("google user info: missing email")
	}
	return &Identity{Subject: info.ID, Name: info.Name, Username: info.Email, Email: info.Email}, nil
}

func githubIdentity(body []byte) (*Identity, error) {
	var info struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("github user info: %w", err)
	}
	if info.ID == 0 {
		return nil, fmt.Errorf("github user info: missing id")
	}
	if info.Login == "" {
		return nil, fmt.Errorf("github user info: missing login")
	}
	email := info.Email
	if email == "" {
		email = info.Login + "@github.com"
	}
	return &Identity{Subject: strconv.FormatInt(info.ID, 10), Name: info.Name, Username: info.Login, Email: email}, nil
}
