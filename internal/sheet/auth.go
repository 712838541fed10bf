package sheet

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sethvargo/go-retry"
)

const (
	sheetsScope = "https://www.googleapis.com/auth/spreadsheets"
	jwtGrant    = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// Refresh a token this long before it actually expires.
	expirySlack = 2 * time.Minute
)

// Credentials is the subset of a Google service-account key file this
// service needs.
type Credentials struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// LoadCredentials reads a service-account key file.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, fmt.Errorf("credentials file missing client_email or private_key")
	}
	if creds.TokenURI == "" {
		creds.TokenURI = "https://oauth2.googleapis.com/token"
	}
	return &creds, nil
}

// ServiceAccountTokenSource exchanges an RS256-signed assertion for an access
// token at the service account's token URI, caching the token until near
// expiry.
type ServiceAccountTokenSource struct {
	creds      *Credentials
	key        *rsa.PrivateKey
	httpClient *http.Client

	mu     sync.RWMutex
	token  string
	expiry time.Time
}

type TokenSourceOption func(*ServiceAccountTokenSource)

func WithTokenHTTPClient(hc *http.Client) TokenSourceOption {
	return func(s *ServiceAccountTokenSource) { s.httpClient = hc }
}

func NewServiceAccountTokenSource(creds *Credentials, opts ...TokenSourceOption) (*ServiceAccountTokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse service account private key: %w", err)
	}
	s := &ServiceAccountTokenSource{
		creds:      creds,
		key:        key,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Token returns a cached access token, fetching a fresh one when the cache
// is empty or close to expiry.
func (s *ServiceAccountTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.token != "" && time.Until(s.expiry) > expirySlack {
		token := s.token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if s.token != "" && time.Until(s.expiry) > expirySlack {
		return s.token, nil
	}

	var token string
	var expiresIn int
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		token, expiresIn, err = s.fetch(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}

	s.token = token
	s.expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	return s.token, nil
}

func (s *ServiceAccountTokenSource) fetch(ctx context.Context) (string, int, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   s.creds.ClientEmail,
		"scope": sheetsScope,
		"aud":   s.creds.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", 0, fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {jwtGrant},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.creds.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", 0, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", 0, fmt.Errorf("token endpoint returned no access token")
	}
	if tokenResp.ExpiresIn <= 0 {
		tokenResp.ExpiresIn = 3600
	}
	return tokenResp.AccessToken, tokenResp.ExpiresIn, nil
}
