package main

// auth.go resolves request credentials to users

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// Authenticator is the credential transport. Handlers only see this
// interface, so the bearer-token and cookie-session modes are interchangeable.
type Authenticator interface {
	// Login issues a credential for user. Token mode returns it for the
	// response body; session mode sets a cookie and returns "".
	Login(w http.ResponseWriter, r *http.Request, user *User) (string, error)
	// Resolve maps the request credential to a fully loaded user. It fails
	// with ErrUnauthenticated, ErrInvalidCredential or ErrIdentityNotFound.
	Resolve(r *http.Request) (*User, error)
	Logout(w http.ResponseWriter, r *http.Request) error
}

func newAuthenticator(cfg Config, db *gorm.DB) Authenticator {
	if cfg.AuthMode == authModeSession {
		return &sessionAuth{db: db, ttl: cfg.SessionTTL, secure: cfg.CookieSecure}
	}
	return &tokenAuth{
		db:      db,
		secret:  []byte(cfg.JWTSecret),
		ttl:     cfg.TokenTTL,
		revoked: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func loadUser(ctx context.Context, db *gorm.DB, id string) (*User, error) {
	var user User
	if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return &user, nil
}

type tokenAuth struct {
	db      *gorm.DB
	secret  []byte
	ttl     time.Duration
	revoked *cache.Cache // jti -> struct{}, kept until the token would expire
}

func (a *tokenAuth) Login(w http.ResponseWriter, r *http.Request, user *User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	})

	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

func (a *tokenAuth) claims(r *http.Request) (*jwt.RegisteredClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, ErrUnauthenticated
	}

	bearerToken := strings.Fields(authHeader)
	if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
		return nil, fmt.Errorf("%w: invalid authorization header format", ErrInvalidCredential)
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(bearerToken[1], &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing sub or jti", ErrInvalidCredential)
	}
	if _, found := a.revoked.Get(claims.ID); found {
		return nil, fmt.Errorf("%w: token revoked", ErrInvalidCredential)
	}
	return &claims, nil
}

func (a *tokenAuth) Resolve(r *http.Request) (*User, error) {
	claims, err := a.claims(r)
	if err != nil {
		return nil, err
	}
	return loadUser(r.Context(), a.db, claims.Subject)
}

// Logout revokes the presented token for the rest of its lifetime.
func (a *tokenAuth) Logout(w http.ResponseWriter, r *http.Request) error {
	claims, err := a.claims(r)
	if err != nil {
		return err
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		a.revoked.Set(claims.ID, struct{}{}, ttl)
	}
	return nil
}

const sessionCookieName = "sid"

type sessionAuth struct {
	db     *gorm.DB
	ttl    time.Duration
	secure bool
}

func (a *sessionAuth) Login(w http.ResponseWriter, r *http.Request, user *User) (string, error) {
	session := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(a.ttl),
	}
	if err := a.db.WithContext(r.Context()).Create(&session).Error; err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return "", nil
}

func (a *sessionAuth) Resolve(r *http.Request) (*User, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrUnauthenticated
	}

	var session Session
	if err := a.db.WithContext(r.Context()).First(&session, "id = ?", cookie.Value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown session", ErrInvalidCredential)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !session.ExpiresAt.After(time.Now()) {
		if err := a.db.WithContext(r.Context()).Delete(&session).Error; err != nil {
			log.Printf("Error deleting expired session: %v", err)
		}
		return nil, fmt.Errorf("%w: session expired", ErrInvalidCredential)
	}
	return loadUser(r.Context(), a.db, session.UserID)
}

func (a *sessionAuth) Logout(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ErrUnauthenticated
	}
	if err := a.db.WithContext(r.Context()).Delete(&Session{}, "id = ?", cookie.Value).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

type userContextKey struct{}

// authMiddleware resolves the caller before next runs. Every protected
// route goes through it; the user is read back with currentUser.
func (s *server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.Resolve(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func currentUser(r *http.Request) *User {
	user, _ := r.Context().Value(userContextKey{}).(*User)
	return user
}
