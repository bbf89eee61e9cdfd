package auth

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Checker-Finance/zuora-adapter/internal/config"
	"github.com/Checker-Finance/zuora-adapter/internal/rate"
	"github.com/Checker-Finance/zuora-adapter/internal/zuora"
	"github.com/Checker-Finance/zuora-adapter/pkg/secrets"
)

// Manager orchestrates multi-tenant credential lookup and SOAP session
// lifecycle. It keeps one SOAP client per tenant, re-authenticating only
// when no usable session token is cached — the client itself never refreshes
// tokens.
type Manager struct {
	logger   *zap.Logger
	cfg      *config.Config
	provider secrets.Provider // nil when static credentials are configured
	creds    *secrets.Cache[secrets.Credentials]
	tokens   *secrets.Cache[string]
	rateMgr  *rate.Manager

	mu      sync.Mutex
	clients map[string]*zuora.Client
}

// NewManager constructs the multi-tenant session manager.
func NewManager(logger *zap.Logger, cfg *config.Config, provider secrets.Provider, rateMgr *rate.Manager) *Manager {
	return &Manager{
		logger:   logger,
		cfg:      cfg,
		provider: provider,
		creds:    secrets.NewCache[secrets.Credentials](cfg.CacheTTL),
		tokens:   secrets.NewCache[string](cfg.SessionTTL),
		rateMgr:  rateMgr,
		clients:  make(map[string]*zuora.Client),
	}
}

// GetCredentials resolves the username/password for a tenant. Static
// credentials from the environment take precedence (dev); otherwise the
// secrets provider is consulted, with a TTL cache in front.
func (m *Manager) GetCredentials(ctx context.Context, tenantID string) (secrets.Credentials, error) {
	if m.cfg.ZuoraUsername != "" {
		return secrets.Credentials{Username: m.cfg.ZuoraUsername, Password: m.cfg.ZuoraPassword}, nil
	}

	key := fmt.Sprintf("%s/%s/zuora", m.cfg.Env, tenantID)
	if cached, ok := m.creds.Get(key); ok {
		return cached, nil
	}
	if m.provider == nil {
		return secrets.Credentials{}, fmt.Errorf("no secrets provider and no static credentials configured")
	}

	credsMap, err := m.provider.GetSecret(ctx, key)
	if err != nil {
		m.logger.Warn("zuora.credentials_fetch_failed", zap.Error(err), zap.String("key", key))
		return secrets.Credentials{}, err
	}
	creds := secrets.Credentials{
		Username: credsMap["username"],
		Password: credsMap["password"],
	}
	m.creds.Put(key, creds)
	return creds, nil
}

// Session returns an authenticated SOAP client for the tenant. A cached
// session token is re-injected when present; otherwise a fresh login is
// performed and the token cached with the configured TTL.
func (m *Manager) Session(ctx context.Context, tenantID string) (*zuora.Client, error) {
	client, err := m.clientFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if client.Authenticated() {
		return client, nil
	}

	tokenKey := "zuora:session:" + tenantID
	if token, ok := m.tokens.Get(tokenKey); ok && token != "" {
		client.SetSessionToken(token)
		return client, nil
	}

	if _, err := client.Authenticate(ctx); err != nil {
		return nil, err
	}
	if token := client.SessionToken(); token != "" {
		m.tokens.PutWithTTL(tokenKey, token, m.cfg.SessionTTL)
	}
	return client, nil
}

// Invalidate discards the cached session for a tenant. Callers do this after
// a create call comes back rejected for authentication reasons, then retry
// through Session.
func (m *Manager) Invalidate(tenantID string) {
	m.tokens.Bust("zuora:session:" + tenantID)
	m.mu.Lock()
	if client, ok := m.clients[tenantID]; ok {
		client.SetSessionToken("")
	}
	m.mu.Unlock()
}

func (m *Manager) clientFor(ctx context.Context, tenantID string) (*zuora.Client, error) {
	m.mu.Lock()
	if client, ok := m.clients[tenantID]; ok {
		m.mu.Unlock()
		return client, nil
	}
	m.mu.Unlock()

	creds, err := m.GetCredentials(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	client := zuora.NewClient(m.logger, zuora.Config{
		Username:           creds.Username,
		Password:           creds.Password,
		Sandbox:            m.cfg.ZuoraSandbox,
		BaseURL:            m.cfg.ZuoraBaseURL,
		APIVersion:         m.cfg.ZuoraAPIVersion,
		InsecureSkipVerify: m.cfg.ZuoraInsecureTLS,
	}, m.rateMgr)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.clients[tenantID]; ok {
		return existing, nil
	}
	m.clients[tenantID] = client
	return client, nil
}
