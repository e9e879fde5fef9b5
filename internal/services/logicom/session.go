package logicom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"catalogsync/internal/logger"
)

// TokenTTL is how long a generated token is reused. It is deliberately much
// shorter than the supplier's own expiry.
const TokenTTL = 60 * time.Second

// SignedHeaders are the authentication headers for one data request.
type SignedHeaders struct {
	Authorization string
	Timestamp     string
	Signature     string
	CustomerID    string
}

func (h *SignedHeaders) Apply(header http.Header) {
	header.Set("Authorization", h.Authorization)
	header.Set("Timestamp", h.Timestamp)
	header.Set("Signature", h.Signature)
	header.Set("CustomerID", h.CustomerID)
}

// Session caches the supplier access token. Tokens are regenerated lazily on
// the first request after expiry; the mutex makes concurrent callers share a
// single regeneration.
type Session struct {
	creds      Credentials
	signer     *Signer
	keyErr     error
	httpClient *http.Client
	logger     *logger.Logger
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewSession(creds Credentials, httpClient *http.Client, logger *logger.Logger) *Session {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	signer, keyErr := NewSigner(creds.AccessTokenKey)
	return &Session{
		creds:      creds,
		signer:     signer,
		keyErr:     keyErr,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// GenerateAccessToken performs the signed handshake and caches the token.
func (s *Session) GenerateAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generateLocked(ctx)
}

// RequestHeaders returns headers for a data request, regenerating the token
// first when none is cached or the cached one has expired.
func (s *Session) RequestHeaders(ctx context.Context) (*SignedHeaders, error) {
	s.mu.Lock()
	token := s.accessToken
	if token == "" || !s.now().Before(s.expiresAt) {
		var err error
		if token, err = s.generateLocked(ctx); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.mu.Unlock()

	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	return &SignedHeaders{
		Authorization: token,
		Timestamp:     timestamp,
		Signature:     s.signer.RequestSignature(token, timestamp),
		CustomerID:    s.creds.CustomerID,
	}, nil
}

func (s *Session) generateLocked(ctx context.Context) (string, error) {
	if s.keyErr != nil {
		return "", s.keyErr
	}

	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	bCode := s.signer.Encrypt(s.creds.ConsumerKey + ";" + s.creds.ConsumerSecret)
	signature := s.signer.Encrypt(s.creds.ConsumerKey + s.creds.CustomerID + timestamp + ";" + s.creds.ConsumerSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.creds.BaseURL+"/GenerateAccessToken", nil)
	if err != nil {
		return "", &AuthError{Op: "create token request", Err: err}
	}
	req.Header.Set("CustomerID", s.creds.CustomerID)
	req.Header.Set("Timestamp", timestamp)
	req.Header.Set("BCode", bCode)
	req.Header.Set("GenerateSignature", signature)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Error generating access token: %v", err)
		return "", &AuthError{Op: "request token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Op: "read token response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("token endpoint returned %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
		s.logger.Error("Error generating access token: %v", err)
		return "", &AuthError{Op: "request token", Err: err}
	}

	token := parseToken(body)
	if token == "" {
		return "", &AuthError{Op: "request token", Err: ErrEmptyToken}
	}

	s.accessToken = token
	s.expiresAt = s.now().Add(TokenTTL)
	s.logger.Info("Access token generated successfully")
	return token, nil
}

// parseToken accepts either a bare token or a JSON string literal.
func parseToken(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if strings.HasPrefix(raw, `"`) {
		var token string
		if err := json.Unmarshal([]byte(raw), &token); err == nil {
			return strings.TrimSpace(token)
		}
	}
	return raw
}
