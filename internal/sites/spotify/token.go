package spotify

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/folio/folio/internal/sites"
)

// DefaultTokenURL is the Spotify accounts token endpoint.
const DefaultTokenURL = "https://accounts.spotify.com/api/token"

// ClientCredentials fetches and caches app tokens with the client
// credentials grant.
type ClientCredentials struct {
	cfg    clientcredentials.Config
	client *http.Client

	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewClientCredentials returns a token provider. Without a client id or
// secret it returns a provider that always fails with sites.ErrNoToken.
func NewClientCredentials(clientID, clientSecret, tokenURL string, client *http.Client) sites.TokenProvider {
	if clientID == "" || clientSecret == "" {
		return sites.StaticToken("")
	}
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &ClientCredentials{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		client: client,
	}
}

// Token implements sites.TokenProvider.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.src == nil {
		// The source outlives the first request, so it gets its own context.
		base := context.Background()
		if c.client != nil {
			base = context.WithValue(base, oauth2.HTTPClient, c.client)
		}
		c.src = oauth2.ReuseTokenSource(nil, c.cfg.TokenSource(base))
	}
	src := c.src
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := src.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}
