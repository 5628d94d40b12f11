package main

// config.go reads the environment into a Config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	authModeToken   = "token"
	authModeSession = "session"
)

type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	AuthMode       string
	TokenTTL       time.Duration
	SessionTTL     time.Duration
	AllowedOrigins []string
	CookieSecure   bool
	TrustProxy     bool
	BcryptCost     int

	// Per-IP budgets for the auth routes and for application creation.
	AuthRateLimit    int
	AuthRateWindow   time.Duration
	CreateRateLimit  int
	CreateRateWindow time.Duration
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "3000"),
		DatabaseURL: getEnv("DATABASE_URL", "jobtracker.db"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		AuthMode:    strings.ToLower(getEnv("AUTH_MODE", authModeToken)),
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing env JWT_SECRET")
	}
	if cfg.AuthMode != authModeToken && cfg.AuthMode != authModeSession {
		return Config{}, fmt.Errorf("AUTH_MODE must be %q or %q, got %q", authModeToken, authModeSession, cfg.AuthMode)
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CookieSecure, err = boolEnv("COOKIE_SECURE", false); err != nil {
		return Config{}, err
	}
	if cfg.TrustProxy, err = boolEnv("TRUST_PROXY", false); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = intEnv("BCRYPT_COST", bcrypt.DefaultCost); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.AuthRateLimit, err = intEnv("AUTH_RATE_LIMIT", 100); err != nil {
		return Config{}, err
	}
	if cfg.AuthRateWindow, err = durationEnv("AUTH_RATE_WINDOW", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CreateRateLimit, err = intEnv("CREATE_RATE_LIMIT", 5); err != nil {
		return Config{}, err
	}
	if cfg.CreateRateWindow, err = durationEnv("CREATE_RATE_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}

	// FRONTEND_URL and FRONTEND_URL2 are kept for existing deployments.
	for _, origin := range []string{os.Getenv("FRONTEND_URL"), os.Getenv("FRONTEND_URL2")} {
		if origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:5173"}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, v)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, v)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
