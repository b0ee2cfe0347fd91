package middleware

import (
	"strings"
	"time"

	"go-food-ordering/helpers"
	"go-food-ordering/models"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	SessionCookie = "session"
	principalKey  = "principal"
)

type cachedSession struct {
	principal models.Principal
	expiresAt time.Time
}

// Authenticator resolves the session token of a request into a principal.
// Parsed tokens are kept in a bounded LRU until they expire.
type Authenticator struct {
	tokens *helpers.TokenManager
	cache  *lru.Cache[string, cachedSession]
}

func NewAuthenticator(tokens *helpers.TokenManager, cacheSize int) (*Authenticator, error) {
	cache, err := lru.New[string, cachedSession](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Authenticator{tokens: tokens, cache: cache}, nil
}

// tokenFromRequest prefers the session cookie over a bearer header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func (a *Authenticator) resolve(token string) (models.Principal, error) {
	if s, ok := a.cache.Get(token); ok {
		if time.Now().Before(s.expiresAt) {
			return s.principal, nil
		}
		a.cache.Remove(token)
		return models.Principal{}, helpers.Unauthorized("session expired")
	}
	principal, expiresAt, err := a.tokens.ValidateToken(token)
	if err != nil {
		return models.Principal{}, err
	}
	a.cache.Add(token, cachedSession{principal: principal, expiresAt: expiresAt})
	return principal, nil
}

// Forget drops a token from the cache, used on logout.
func (a *Authenticator) Forget(token string) {
	if token != "" {
		a.cache.Remove(token)
	}
}

// Authentication rejects requests without a valid session.
func (a *Authenticator) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.Error(helpers.Unauthorized("authentication required"))
			c.Abort()
			return
		}
		principal, err := a.resolve(token)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// OptionalAuthentication attaches a principal when a valid session is present
// and lets anonymous requests through.
func (a *Authenticator) OptionalAuthentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromRequest(c); token != "" {
			if principal, err := a.resolve(token); err == nil {
				c.Set(principalKey, principal)
			}
		}
		c.Next()
	}
}

// RequireRole must run after Authentication.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.Error(helpers.Unauthorized("authentication required"))
			c.Abort()
			return
		}
		for _, r := range roles {
			if principal.Role == r {
				c.Next()
				return
			}
		}
		c.Error(helpers.Forbidden("insufficient role"))
		c.Abort()
	}
}

func CurrentPrincipal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// SessionToken returns the raw token the request authenticated with.
func SessionToken(c *gin.Context) string {
	return tokenFromRequest(c)
}
