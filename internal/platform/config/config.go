package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"pressroom/pkg/domain"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string
	Provider    Provider
	Routes      Routes

	// ProfileTimeout bounds every profile lookup performed during session
	// resolution. An unresponsive profile store must degrade to a
	// "no confirmed profile" outcome, never block the request.
	ProfileTimeout time.Duration

	// AuthRateLimit allows that many auth-endpoint requests per client IP
	// per AuthRateWindow.
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// Provider describes the hosted identity provider this service consumes.
type Provider struct {
	// BaseURL is the provider's API root, e.g. https://id.example.com.
	BaseURL string
	// JWTSecret verifies provider-issued access tokens (HS256).
	JWTSecret string
	// Timeout bounds every outbound call to the provider.
	Timeout time.Duration
}

// Routes is the single source of truth for route protection. Both the edge
// gateway and any handler-level check read the same values, so the allowed
// admin role set cannot drift between layers.
type Routes struct {
	// ProtectedPrefixes require an active session.
	ProtectedPrefixes []string
	// AdminPrefixes additionally require a role from AllowedAdminRoles.
	AdminPrefixes []string
	// AllowedAdminRoles gates the admin prefixes.
	AllowedAdminRoles []domain.Role

	LoginPath string
	HomePath  string
	AdminPath string
}

// Protected reports whether path falls under a prefix requiring a session.
func (r Routes) Protected(path string) bool {
	return matchesPrefix(path, r.ProtectedPrefixes)
}

// Admin reports whether path falls under a role-gated prefix.
func (r Routes) Admin(path string) bool {
	return matchesPrefix(path, r.AdminPrefixes)
}

// RoleAllowed reports whether role may enter the admin prefixes.
func (r Routes) RoleAllowed(role domain.Role) bool {
	return role.In(r.AllowedAdminRoles)
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// FromEnv builds a Config from environment variables, with defaults suited
// to local development.
func FromEnv() Config {
	return Config{
		Addr:        envOr("PRESSROOM_ADDR", ":8080"),
		DatabaseURL: os.Getenv("PRESSROOM_DATABASE_URL"),
		RedisURL:    os.Getenv("PRESSROOM_REDIS_URL"),
		Provider: Provider{
			BaseURL: envOr("PRESSROOM_PROVIDER_URL", "http://localhost:9096"),
			// Default for development only; override in production.
			JWTSecret: envOr("PRESSROOM_JWT_SECRET", "dev-secret-change-in-production"),
			Timeout:   envDuration("PRESSROOM_PROVIDER_TIMEOUT", 5*time.Second),
		},
		Routes: Routes{
			ProtectedPrefixes: envList("PRESSROOM_PROTECTED_PREFIXES", []string{"/admin", "/studio"}),
			AdminPrefixes:     envList("PRESSROOM_ADMIN_PREFIXES", []string{"/admin"}),
			AllowedAdminRoles: envRoles("PRESSROOM_ADMIN_ROLES", []domain.Role{domain.RoleAdmin, domain.RoleEditor}),
			LoginPath:         "/login",
			HomePath:          "/",
			AdminPath:         "/admin",
		},
		ProfileTimeout: envDuration("PRESSROOM_PROFILE_TIMEOUT", time.Second),
		AuthRateLimit:  envInt("PRESSROOM_AUTH_RATE_LIMIT", 30),
		AuthRateWindow: envDuration("PRESSROOM_AUTH_RATE_WINDOW", time.Minute),
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" && strings.HasPrefix(item, "/") {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envRoles(key string, fallback []domain.Role) []domain.Role {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []domain.Role
	for _, item := range strings.Split(v, ",") {
		role, err := domain.ParseRole(strings.TrimSpace(item))
		if err != nil {
			continue
		}
		out = append(out, role)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
