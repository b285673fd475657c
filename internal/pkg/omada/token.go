package omada

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/camstm/voucherhub/app/models"
)

// TokenState is the lifecycle state of the cached controller token.
type TokenState int

const (
	StateUnauthenticated TokenState = iota
	StateValid
	StateExpiring
	StateInvalid
)

func (s TokenState) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpiring:
		return "expiring"
	case StateInvalid:
		return "invalid"
	default:
		return "unauthenticated"
	}
}

const (
	// Tokens are refreshed this long before their stored expiry.
	expiryMargin = 5 * time.Minute
	// The controller omits expiresIn on some responses.
	defaultExpiresIn = 3600

	tokenRequestTimeout = 15 * time.Second
)

// Session carries everything one outbound controller call needs: where to
// send it and the token to attach.
type Session struct {
	BaseURL     string
	OmadacID    string
	AccessToken string
}

// TokenManager owns the credential record and keeps outbound calls
// authenticated without interactive re-login. Grant outcomes drive a small
// state machine: every EnsureValidToken call ends in StateValid with a
// usable session or a propagated *AuthError.
type TokenManager struct {
	store ConfigStore
	http  *http.Client

	mu    sync.Mutex
	state TokenState
}

// NewTokenManager creates a token manager on top of the given credential store.
func NewTokenManager(store ConfigStore) *TokenManager {
	return &TokenManager{
		store: store,
		http:  &http.Client{Timeout: tokenRequestTimeout},
		state: StateUnauthenticated,
	}
}

// State returns the current token lifecycle state.
func (m *TokenManager) State() TokenState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Invalidate marks the cached token as rejected so the next call
// re-authenticates even if the stored expiry still looks fine. Called when
// the controller answers with a token-expired error code.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateInvalid
}

// EnsureValidToken loads the credential record, re-authenticates if the
// token is missing, expiring within the safety margin, or marked invalid,
// persists any newly obtained pair and returns a ready-to-use session.
func (m *TokenManager) EnsureValidToken(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return nil, &AuthError{Reason: "missing API configuration", Err: err}
		}
		return nil, fmt.Errorf("load controller credentials: %w", err)
	}

	if m.state != StateInvalid {
		m.state = classifyToken(cfg)
	}
	if m.state == StateValid {
		return sessionFor(cfg), nil
	}

	return m.authenticate(ctx, cfg)
}

// ReplaceCredentials stores a new controller endpoint and client credential
// set and clears the cached token pair, forcing the next call to
// authenticate from scratch.
func (m *TokenManager) ReplaceCredentials(controllerURL, clientID, clientSecret, omadacID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			return fmt.Errorf("load controller credentials: %w", err)
		}
		cfg = &models.OmadaConfig{IsActive: true}
	}

	cfg.ControllerURL = strings.TrimRight(strings.TrimSpace(controllerURL), "/")
	cfg.ClientID = strings.TrimSpace(clientID)
	cfg.ClientSecret = strings.TrimSpace(clientSecret)
	cfg.OmadacID = strings.TrimSpace(omadacID)
	cfg.ClearTokens()
	cfg.IsActive = true

	if err := m.store.Save(cfg); err != nil {
		return fmt.Errorf("save controller credentials: %w", err)
	}
	m.state = StateUnauthenticated
	return nil
}

func classifyToken(cfg *models.OmadaConfig) TokenState {
	if !cfg.HasAccessToken() {
		return StateUnauthenticated
	}
	if cfg.TokenExpiresWithin(0) {
		return StateInvalid
	}
	if cfg.TokenExpiresWithin(expiryMargin) {
		return StateExpiring
	}
	return StateValid
}

func sessionFor(cfg *models.OmadaConfig) *Session {
	return &Session{
		BaseURL:     strings.TrimRight(cfg.ControllerURL, "/"),
		OmadacID:    cfg.OmadacID,
		AccessToken: cfg.AccessToken,
	}
}

// authenticate runs the grant fallback chain: refresh-token first when a
// refresh token is on record, client-credentials otherwise. A refresh
// failure is recoverable and falls through to client-credentials; only a
// failed client-credentials grant is fatal. Callers hold m.mu.
func (m *TokenManager) authenticate(ctx context.Context, cfg *models.OmadaConfig) (*Session, error) {
	if cfg.RefreshToken != "" {
		tr, err := m.refreshGrant(ctx, cfg)
		if err == nil {
			return m.persistToken(cfg, tr)
		}
		log.Printf("omada: refresh grant failed, falling back to client credentials: %v", err)
	}

	tr, err := m.clientCredentialsGrant(ctx, cfg)
	if err != nil {
		m.state = StateInvalid
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &AuthError{Reason: "client credentials grant failed", Err: err}
	}
	return m.persistToken(cfg, tr)
}

func (m *TokenManager) persistToken(cfg *models.OmadaConfig, tr *tokenResult) (*Session, error) {
	cfg.AccessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		cfg.RefreshToken = tr.RefreshToken
	}
	expiresIn := tr.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	expiry := time.Now().Add(time.Duration(expiresIn) * time.Second)
	cfg.TokenExpiresAt = &expiry

	if err := m.store.Save(cfg); err != nil {
		return nil, fmt.Errorf("persist controller token: %w", err)
	}
	m.state = StateValid
	return sessionFor(cfg), nil
}

func (m *TokenManager) clientCredentialsGrant(ctx context.Context, cfg *models.OmadaConfig) (*tokenResult, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.OmadacID == "" {
		return nil, &AuthError{Reason: "missing API configuration"}
	}

	url := fmt.Sprintf("%s/openapi/authorize/token?grant_type=client_credentials", strings.TrimRight(cfg.ControllerURL, "/"))
	body := map[string]string{
		"omadacId":      cfg.OmadacID,
		"client_id":     cfg.ClientID,
		"client_secret": cfg.ClientSecret,
	}
	return m.postTokenRequest(ctx, "client_credentials grant", url, body)
}

func (m *TokenManager) refreshGrant(ctx context.Context, cfg *models.OmadaConfig) (*tokenResult, error) {
	url := fmt.Sprintf("%s/openapi/authorize/token?grant_type=refresh_token&refresh_token=%s",
		strings.TrimRight(cfg.ControllerURL, "/"), cfg.RefreshToken)
	body := map[string]string{
		"client_id":     cfg.ClientID,
		"client_secret": cfg.ClientSecret,
	}
	return m.postTokenRequest(ctx, "refresh_token grant", url, body)
}

func (m *TokenManager) postTokenRequest(ctx context.Context, op, url string, body any) (*tokenResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))}
	}

	result, err := decodeEnvelope(raw)
	if err != nil {
		var apiErr *ApiError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		return nil, &TransportError{Op: op, Err: err}
	}

	var tr tokenResult
	if err := json.Unmarshal(result, &tr); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode token result: %w", err)}
	}
	if tr.AccessToken == "" {
		return nil, &TransportError{Op: op, Err: errors.New("token response missing accessToken")}
	}
	return &tr, nil
}

// decodeEnvelope parses the {errorCode, msg, result} wrapper and fails
// closed: a body without a decodable errorCode is an error, never success.
// A non-zero errorCode comes back as an *ApiError.
func decodeEnvelope(raw []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if env.ErrorCode == nil {
		return nil, errors.New("response envelope missing errorCode")
	}
	if *env.ErrorCode != 0 {
		return nil, &ApiError{Code: *env.ErrorCode, Message: env.Msg}
	}
	return env.Result, nil
}
