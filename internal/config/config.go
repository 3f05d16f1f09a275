package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is the signing key used when JWT_SECRET is unset. It is only
// accepted while Discord OAuth is disabled.
const DevJWTSecret = "dev-only-change-me"

type Config struct {
	// Discord Bot (optional)
	DiscordToken    string
	DigestChannelID string
	DigestInterval  time.Duration

	// Discord OAuth2 (optional; protected routes are open without it)
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Database (optional; in-memory store when empty)
	DatabaseURL string

	// Web Server
	WebBind        string
	WebUIBaseURL   string
	AllowedOrigins []string

	// Session
	JWTSecret string

	LogLevel string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, defaultValue string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return defaultValue
	}

	cfg := &Config{
		DiscordToken:        getenv("DISCORD_TOKEN"),
		DigestChannelID:     getenv("DIGEST_CHANNEL_ID"),
		DatabaseURL:         getenv("DATABASE_URL"),
		WebBind:             get("WEB_BIND", "0.0.0.0:3001"),
		DiscordClientID:     getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  get("DISCORD_REDIRECT_URI", "http://localhost:3001/api/auth/callback"),
		JWTSecret:           get("JWT_SECRET", DevJWTSecret),
		LogLevel:            get("LOG_LEVEL", "info"),
		AllowedOrigins:      splitList(get("ALLOWED_ORIGINS", "*")),
	}

	interval, err := time.ParseDuration(get("DIGEST_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIGEST_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("DIGEST_INTERVAL must be positive")
	}
	cfg.DigestInterval = interval

	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	if (cfg.DiscordClientID == "") != (cfg.DiscordClientSecret == "") {
		return nil, fmt.Errorf("DISCORD_CLIENT_ID and DISCORD_CLIENT_SECRET must be set together")
	}
	if cfg.OAuthEnabled() && cfg.JWTSecret == DevJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set to a private value when Discord OAuth is enabled")
	}

	return cfg, nil
}

// OAuthEnabled reports whether Discord login is configured.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3001/api/auth/callback" -> "http://localhost:3001"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3001"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
