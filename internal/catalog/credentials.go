package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// Refresh this long before the token actually expires.
	refreshLead = time.Minute
	// How long to wait before retrying a failed refresh.
	refreshRetry = 30 * time.Second
)

// Credentials owns the catalog provider's client-credentials token:
// one explicitly managed cache with a scheduled refresh, injected into
// the provider instead of living in package-level state. It implements
// oauth2.TokenSource.
type Credentials struct {
	cfg *clientcredentials.Config

	mu    sync.RWMutex
	token *oauth2.Token
}

func NewCredentials(clientID, clientSecret string) *Credentials {
	return &Credentials{
		cfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyauth.TokenURL,
		},
	}
}

// Token returns the cached access token, fetching a fresh one if the
// cache is empty or expired. Satisfies oauth2.TokenSource.
func (c *Credentials) Token() (*oauth2.Token, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token.Valid() {
		return token, nil
	}
	return c.refresh(context.Background())
}

func (c *Credentials) refresh(ctx context.Context) (*oauth2.Token, error) {
	token, err := c.cfg.Token(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return token, nil
}

// Run keeps the token warm until ctx is cancelled, refreshing ahead of
// expiry and backing off briefly on failure.
func (c *Credentials) Run(ctx context.Context) {
	for {
		wait := refreshRetry
		if token, err := c.refresh(ctx); err != nil {
			log.Printf("catalog: token refresh failed: %v", err)
		} else {
			wait = time.Until(token.Expiry) - refreshLead
			if wait < refreshRetry {
				wait = refreshRetry
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
