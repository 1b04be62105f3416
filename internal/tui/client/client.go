package client

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Wal-20/studysphere-cli/internal/config"
	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

// APIClient talks to the StudySphere backend: REST under /api and the
// STOMP broker under /ws.
type APIClient struct {
	baseURL        string
	wsURL          string
	httpClient     *http.Client
	cache          *cache.Cache
	reconnectDelay time.Duration
	now            func() time.Time

	mu          sync.RWMutex
	accessToken string
	user        models.User
}

func NewAPIClient(cfg config.Client) *APIClient {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	wsURL := cfg.WSURL
	if wsURL == "" {
		wsURL, _ = config.WebSocketURL(cfg.ServerURL)
	}
	return &APIClient{
		baseURL:        strings.TrimRight(cfg.ServerURL, "/") + "/api",
		wsURL:          wsURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		cache:          cache.New(ttl, 2*ttl),
		reconnectDelay: cfg.ReconnectDelay,
		now:            time.Now,
	}
}

// Ping checks the backend is reachable. The public course list is the
// cheapest unauthenticated endpoint.
func (c *APIClient) Ping() error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/courses", nil)
	if err != nil {
		return fmt.Errorf("failed to create test request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server returned unexpected status: %s", resp.Status)
	}
	return nil
}

func (c *APIClient) SetSession(s utils.Session) {
	c.mu.Lock()
	c.accessToken = s.Token
	c.user = s.User
	c.mu.Unlock()
}

func (c *APIClient) Session() utils.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return utils.Session{Token: c.accessToken, User: c.user}
}

// CurrentUser is the user the session was opened for.
func (c *APIClient) CurrentUser() models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *APIClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// ClearSession forgets the token and every cached response.
func (c *APIClient) ClearSession() {
	c.mu.Lock()
	c.accessToken = ""
	c.user = models.User{}
	c.mu.Unlock()
	c.cache.Flush()
}

// invalidate drops cached responses whose key starts with prefix.
func (c *APIClient) invalidate(prefix string) {
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}
