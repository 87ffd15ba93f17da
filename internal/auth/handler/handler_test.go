package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"pressroom/internal/auth/handler"
	"pressroom/internal/auth/identity"
	"pressroom/internal/auth/state"
	"pressroom/internal/auth/store/revocation"
	"pressroom/internal/platform/config"
	"pressroom/internal/platform/metrics"
	"pressroom/internal/profile"
	"pressroom/pkg/domain"
)

const handlerSecret = "handler-test-secret"

// fakeProvider stands in for the identity provider's token and logout
// endpoints. It issues real HS256 tokens for the subject configured on it.
type fakeProvider struct {
	mu         sync.Mutex
	server     *httptest.Server
	minter     *identity.Client
	subject    domain.UserID
	rejectAll  bool
	emptyToken bool
	logouts    int
	codes      []string
}

func newFakeProvider(subject domain.UserID) *fakeProvider {
	p := &fakeProvider{subject: subject}
	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	return p
}

func (p *fakeProvider) handle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch r.URL.Path {
	case "/token":
		var form map[string]string
		_ = json.NewDecoder(r.Body).Decode(&form)
		if code := form["code"]; code != "" {
			p.codes = append(p.codes, code)
		}
		if p.rejectAll {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		access := ""
		if !p.emptyToken {
			var err error
			access, err = p.minter.MintAccessToken(p.subject, "desk@pressroom.test", "https://cdn.pressroom.test/a.png", time.Hour)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"refresh_token": "issued-refresh",
			"expires_in":    3600,
		})
	case "/logout":
		p.logouts++
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *fakeProvider) logoutCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logouts
}

type HandlerSuite struct {
	suite.Suite
	subject  domain.UserID
	provider *fakeProvider
	client   *identity.Client
	profiles *profile.MemoryStore
	revoked  *revocation.MemoryStore
	bus      *state.Bus
	router   chi.Router
	events   []state.Event
	eventsMu sync.Mutex
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.subject = domain.UserID(uuid.New())
	s.provider = newFakeProvider(s.subject)
	s.client = identity.New(config.Provider{
		BaseURL:   s.provider.server.URL,
		JWTSecret: handlerSecret,
		Timeout:   time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.provider.minter = s.client

	s.profiles = profile.NewMemory()
	s.revoked = revocation.NewMemory()
	s.bus = state.NewBus()
	s.events = nil
	s.bus.Subscribe(func(e state.Event) {
		s.eventsMu.Lock()
		s.events = append(s.events, e)
		s.eventsMu.Unlock()
	})

	routes := config.Routes{
		ProtectedPrefixes: []string{"/admin", "/studio"},
		AdminPrefixes:     []string{"/admin"},
		AllowedAdminRoles: []domain.Role{domain.RoleAdmin, domain.RoleEditor},
		LoginPath:         "/login",
		HomePath:          "/",
		AdminPath:         "/admin",
	}
	h := handler.New(s.client, s.profiles, s.revoked, routes, s.bus,
		metrics.New(prometheus.NewRegistry()), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.provider.server.Close()
}

func (s *HandlerSuite) seedProfile(role domain.Role) {
	s.Require().NoError(s.profiles.Save(context.Background(), &profile.Profile{
		ID:    s.subject,
		Email: "desk@pressroom.test",
		Role:  role,
	}))
}

func (s *HandlerSuite) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *HandlerSuite) publishedEvents() []state.Event {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	return append([]state.Event(nil), s.events...)
}

func cookieByName(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (s *HandlerSuite) TestCallbackSignsInAdminToAdminArea() {
	s.seedProfile(domain.RoleAdmin)

	rr := s.get("/auth/callback?code=one-time-code")

	s.Equal(http.StatusFound, rr.Code)
	s.Equal("/admin", rr.Header().Get("Location"))
	s.Equal([]string{"one-time-code"}, s.provider.codes)

	// The destination changed after the cookies were queued; both session
	// cookies must still be on the response.
	access := cookieByName(rr, identity.AccessCookie)
	refresh := cookieByName(rr, identity.RefreshCookie)
	s.Require().NotNil(access)
	s.Require().NotNil(refresh)
	s.NotEmpty(access.Value)
	s.Equal("issued-refresh", refresh.Value)
	s.True(access.HttpOnly)

	events := s.publishedEvents()
	s.Require().Len(events, 1)
	s.Equal(state.EventSignedIn, events[0].Type)
	s.Equal(s.subject.String(), events[0].Subject)
}

// Only admins land in the admin area by default. Editors can still reach it
// through the gate, but a fresh sign-in without a destination goes home.
func (s *HandlerSuite) TestCallbackDefaultDestinationByRole() {
	for _, tc := range []struct {
		role domain.Role
		want string
	}{
		{domain.RoleEditor, "/"},
		{domain.RoleReader, "/"},
	} {
		s.Run(string(tc.role), func() {
			s.seedProfile(tc.role)

			rr := s.get("/auth/callback?code=reader-code")

			s.Equal(http.StatusFound, rr.Code)
			s.Equal(tc.want, rr.Header().Get("Location"))
			s.NotNil(cookieByName(rr, identity.AccessCookie))
		})
	}
}

func (s *HandlerSuite) TestCallbackWithoutProfileSendsHome() {
	rr := s.get("/auth/callback?code=new-user-code")

	s.Equal(http.StatusFound, rr.Code)
	s.Equal("/", rr.Header().Get("Location"))
	s.NotNil(cookieByName(rr, identity.AccessCookie))
}

func (s *HandlerSuite) TestCallbackHonorsRedirectTo() {
	s.seedProfile(domain.RoleEditor)

	rr := s.get("/auth/callback?code=c&redirectTo=%2Fstudio%2Fuploads")

	s.Equal(http.StatusFound, rr.Code)
	s.Equal("/studio/uploads", rr.Header().Get("Location"))
	s.NotNil(cookieByName(rr, identity.AccessCookie))
}

func (s *HandlerSuite) TestCallbackRebaseCarriesDraftCookies() {
	// Reader with an explicit destination: the draft starts at /admin and
	// is retargeted, so this exercises the rebase path end to end.
	s.seedProfile(domain.RoleReader)

	rr := s.get("/auth/callback?code=c&redirectTo=%2Farticles%2F5")

	s.Equal(http.StatusFound, rr.Code)
	s.Equal("/articles/5", rr.Header().Get("Location"))

	access := cookieByName(rr, identity.AccessCookie)
	refresh := cookieByName(rr, identity.RefreshCookie)
	s.Require().NotNil(access)
	s.Require().NotNil(refresh)
	s.NotEmpty(access.Value)
	s.Equal("issued-refresh", refresh.Value)
}

func (s *HandlerSuite) TestCallbackRejectsOffsiteRedirectTo() {
	s.seedProfile(domain.RoleEditor)

	for _, target := range []string{
		"https%3A%2F%2Fevil.example",
		"%2F%2Fevil.example",
		"%2F%5Cevil.example",
		"relative-no-slash",
	} {
		s.Run(target, func() {
			rr := s.get("/auth/callback?code=c&redirectTo=" + target)

			s.Equal(http.StatusFound, rr.Code)
			s.Equal("/admin", rr.Header().Get("Location"))
		})
	}
}

func (s *HandlerSuite) TestCallbackWithoutCode() {
	rr := s.get("/auth/callback")

	s.Equal(http.StatusFound, rr.Code)
	s.Equal("/login?error=no_code", rr.Header().Get("Location"))
	s.Nil(cookieByName(rr, identity.AccessCookie))
	s.Empty(s.publishedEvents())
}

func (s *HandlerSuite) TestCallbackExchangeRejected() {
	s.provider.rejectAll = true

	rr := s.get("/auth/callback?code=stale-code")

	s.Equal(http.StatusFound, rr.Code)
	s.Equal("/login?error=auth_failed", rr.Header().Get("Location"))
	s.Nil(cookieByName(rr, identity.AccessCookie))
}

func (s *HandlerSuite) TestCallbackEmptyTokenResponse() {
	s.provider.emptyToken = true

	rr := s.get("/auth/callback?code=odd-code")

	s.Equal(http.StatusFound, rr.Code)
	s.Equal("/login?error=no_session", rr.Header().Get("Location"))
	s.Nil(cookieByName(rr, identity.AccessCookie))
}

func (s *HandlerSuite) TestCallbackRecordsSignIn() {
	s.seedProfile(domain.RoleAdmin)

	before := time.Now()
	rr := s.get("/auth/callback?code=c")
	s.Equal(http.StatusFound, rr.Code)

	prof, err := s.profiles.FindByID(context.Background(), s.subject)
	s.Require().NoError(err)
	s.Require().NotNil(prof.LastSignIn)
	s.False(prof.LastSignIn.Before(before.Truncate(time.Second)))
	s.Equal("https://cdn.pressroom.test/a.png", prof.AvatarURL)
}

func (s *HandlerSuite) signedInCookies() []*http.Cookie {
	s.seedProfile(domain.RoleEditor)
	rr := s.get("/auth/callback?code=sign-in")
	s.Require().Equal(http.StatusFound, rr.Code)
	cookies := rr.Result().Cookies()
	s.Require().NotEmpty(cookies)
	return cookies
}

func (s *HandlerSuite) TestSignOutClearsCookiesAndRevokes() {
	cookies := s.signedInCookies()

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	s.Equal(http.StatusSeeOther, rr.Code)
	s.Equal("/", rr.Header().Get("Location"))

	access := cookieByName(rr, identity.AccessCookie)
	refresh := cookieByName(rr, identity.RefreshCookie)
	s.Require().NotNil(access)
	s.Require().NotNil(refresh)
	s.Equal(-1, access.MaxAge)
	s.Equal(-1, refresh.MaxAge)
	s.Empty(access.Value)

	s.Equal(1, s.provider.logoutCount())

	events := s.publishedEvents()
	s.Require().NotEmpty(events)
	s.Equal(state.EventSignedOut, events[len(events)-1].Type)
}

func (s *HandlerSuite) TestSignOutRevokesAccessToken() {
	cookies := s.signedInCookies()

	var tokenID string
	for _, c := range cookies {
		if c.Name == identity.AccessCookie {
			sess, err := s.client.Bind(requestWith(c)).Session(context.Background())
			s.Require().NoError(err)
			s.Require().NotNil(sess)
			tokenID = sess.TokenID
		}
	}
	s.Require().NotEmpty(tokenID)

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	s.Equal(http.StatusSeeOther, rr.Code)

	revoked, err := s.revoked.IsRevoked(context.Background(), tokenID)
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *HandlerSuite) TestSignOutClearsCookiesWhenProviderDown() {
	cookies := s.signedInCookies()
	s.provider.server.Close()

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	s.Equal(http.StatusSeeOther, rr.Code)
	access := cookieByName(rr, identity.AccessCookie)
	s.Require().NotNil(access)
	s.Equal(-1, access.MaxAge)
}

func (s *HandlerSuite) TestSignOutWithoutSession() {
	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	s.Equal(http.StatusSeeOther, rr.Code)
	s.Equal("/", rr.Header().Get("Location"))
}

func (s *HandlerSuite) TestSessionViewSignedOut() {
	rr := s.get("/auth/session")

	s.Equal(http.StatusOK, rr.Code)
	var view map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &view))
	s.Equal(false, view["signed_in"])
}

func (s *HandlerSuite) TestSessionViewSignedInEditor() {
	cookies := s.signedInCookies()

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	s.Equal(http.StatusOK, rr.Code)
	var view map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &view))
	s.Equal(true, view["signed_in"])
	s.Equal(s.subject.String(), view["user_id"])
	s.Equal("editor", view["role"])
	s.Equal(true, view["admin_ui"])
}

func (s *HandlerSuite) TestLoginPageShowsErrorAndAuthorizeLink() {
	rr := s.get("/login?error=auth_failed&redirectTo=%2Fadmin")

	s.Equal(http.StatusOK, rr.Code)
	body := rr.Body.String()
	s.Contains(body, "auth_failed")
	s.Contains(body, "/authorize?")
	s.Contains(body, "redirectTo")
}

func (s *HandlerSuite) TestLoginPageDropsOffsiteRedirect() {
	rr := s.get("/login?redirectTo=https%3A%2F%2Fevil.example")

	s.Equal(http.StatusOK, rr.Code)
	s.False(strings.Contains(rr.Body.String(), "evil.example"))
}

func requestWith(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	return req
}
