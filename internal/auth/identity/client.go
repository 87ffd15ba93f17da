// Package identity is the client for the hosted identity provider. The
// provider owns the session store; this package only exchanges codes,
// validates access tokens, rotates expired ones, and maps the token pair
// onto request cookies.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pressroom/internal/auth/models"
	"pressroom/internal/platform/config"
	"pressroom/pkg/domain"
)

// Client talks to the identity provider. It is safe for concurrent use;
// per-request cookie state lives on Bound.
type Client struct {
	baseURL string
	secret  []byte
	httpc   *http.Client
	logger  *slog.Logger
}

// New builds a provider client from config.
func New(cfg config.Provider, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		secret:  []byte(cfg.JWTSecret),
		httpc:   &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// AuthorizeURL builds the provider's authorization endpoint URL. A non-empty
// redirectTo rides along so the provider echoes it back to the callback.
func (c *Client) AuthorizeURL(redirectTo string) string {
	q := url.Values{"response_type": {"code"}}
	if redirectTo != "" {
		q.Set("redirectTo", redirectTo)
	}
	return c.baseURL + "/authorize?" + q.Encode()
}

// accessClaims is the claim set the provider signs into access tokens.
type accessClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// tokenResponse is the provider's token endpoint payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Bound ties the client to one request/response cycle. Cookie reads come
// from the bound request; cookie writes accumulate in pending until the
// caller flushes them onto whichever response it ends up producing. That
// keeps token rotation alive across redirects.
type Bound struct {
	client  *Client
	req     *http.Request
	pending []*http.Cookie
}

// Bind scopes the client to a single request.
func (c *Client) Bind(r *http.Request) *Bound {
	return &Bound{client: c, req: r}
}

// Session resolves the current session from the bound request's cookies.
// A missing or rejected credential is not an error: it returns (nil, nil)
// so callers can route to login. When the access token has expired and a
// refresh token is present, the pair is rotated with the provider and the
// replacement cookies are queued on the bound response.
func (b *Bound) Session(ctx context.Context) (*models.Session, error) {
	access := readCookie(b.req, AccessCookie)
	refresh := readCookie(b.req, RefreshCookie)
	if access == "" && refresh == "" {
		return nil, nil
	}

	if access != "" {
		sess, err := b.client.parseAccessToken(access)
		if err == nil {
			sess.RefreshToken = refresh
			return sess, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			b.client.logger.DebugContext(ctx, "access token rejected", "error", err)
		}
	}
	if refresh == "" {
		return nil, nil
	}

	tok, err := b.client.refreshGrant(ctx, refresh)
	if err != nil {
		// The provider refusing a refresh means the session is gone,
		// which routes to login rather than surfacing an error.
		b.client.logger.WarnContext(ctx, "token refresh rejected", "error", err)
		return nil, nil
	}
	sess, err := b.client.sessionFromToken(tok)
	if err != nil {
		b.client.logger.WarnContext(ctx, "refreshed token unparseable", "error", err)
		return nil, nil
	}
	b.queueSessionCookies(tok)
	return sess, nil
}

// ExchangeCode swaps an authorization code for a session and queues the
// session cookies. A provider rejection returns an error; a success response
// carrying no token returns (nil, nil).
func (b *Bound) ExchangeCode(ctx context.Context, code string) (*models.Session, error) {
	tok, err := b.client.codeGrant(ctx, code)
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, nil
	}
	sess, err := b.client.sessionFromToken(tok)
	if err != nil {
		return nil, fmt.Errorf("exchange produced invalid token: %w", err)
	}
	b.queueSessionCookies(tok)
	return sess, nil
}

// SignOut invalidates the session with the provider and queues cookie
// expirations. The expirations are queued before the remote call so a
// provider outage cannot block the local logout.
func (b *Bound) SignOut(ctx context.Context) error {
	b.pending = append(b.pending, ClearSessionCookies()...)
	refresh := readCookie(b.req, RefreshCookie)
	if refresh == "" {
		return nil
	}
	return b.client.logout(ctx, refresh)
}

// PendingCookies returns the cookie writes accumulated on this binding.
func (b *Bound) PendingCookies() []*http.Cookie {
	return b.pending
}

// WriteCookies flushes pending cookie writes onto w.
func (b *Bound) WriteCookies(w http.ResponseWriter) {
	for _, c := range b.pending {
		http.SetCookie(w, c)
	}
}

func (b *Bound) queueSessionCookies(tok tokenResponse) {
	maxAge := int(tok.ExpiresIn)
	if maxAge <= 0 {
		maxAge = 3600
	}
	b.pending = append(b.pending, sessionCookie(AccessCookie, tok.AccessToken, maxAge))
	if tok.RefreshToken != "" {
		b.pending = append(b.pending, sessionCookie(RefreshCookie, tok.RefreshToken, refreshCookieMaxAge))
	}
}

func (c *Client) parseAccessToken(raw string) (*models.Session, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, err
	}
	subject, err := domain.ParseUserID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("access token subject: %w", err)
	}
	sess := &models.Session{
		AccessToken: raw,
		TokenID:     claims.ID,
		Subject:     subject,
		Email:       claims.Email,
		AvatarURL:   claims.AvatarURL,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

func (c *Client) sessionFromToken(tok tokenResponse) (*models.Session, error) {
	sess, err := c.parseAccessToken(tok.AccessToken)
	if err != nil {
		return nil, err
	}
	sess.RefreshToken = tok.RefreshToken
	return sess, nil
}

func (c *Client) codeGrant(ctx context.Context, code string) (tokenResponse, error) {
	return c.tokenRequest(ctx, map[string]string{
		"grant_type": "authorization_code",
		"code":       code,
	})
}

func (c *Client) refreshGrant(ctx context.Context, refreshToken string) (tokenResponse, error) {
	return c.tokenRequest(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
}

func (c *Client) tokenRequest(ctx context.Context, form map[string]string) (tokenResponse, error) {
	var tok tokenResponse
	resp, err := c.post(ctx, "/token", form)
	if err != nil {
		return tok, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return tok, fmt.Errorf("provider token endpoint returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return tok, fmt.Errorf("decode token response: %w", err)
	}
	return tok, nil
}

func (c *Client) logout(ctx context.Context, refreshToken string) error {
	resp, err := c.post(ctx, "/logout", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("provider logout returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal provider request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider %s: %w", path, err)
	}
	return resp, nil
}

// MintAccessToken signs an access token the way the provider does. Exists for
// the development provider stub and for tests; production tokens come from
// the hosted provider.
func (c *Client) MintAccessToken(subject domain.UserID, email, avatarURL string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:     email,
		AvatarURL: avatarURL,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func newTokenID() string {
	return uuid.NewString()
}
