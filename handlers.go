package main

// handlers.go this is our server wiring and the auth endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const maxBodyBytes = 1 << 20

type server struct {
	cfg           Config
	db            *gorm.DB
	auth          Authenticator
	validate      *validator.Validate
	summaries     *generationCache
	authLimiter   *rateLimiter
	createLimiter *rateLimiter
	// dummyHash keeps login timing the same whether or not the email exists.
	dummyHash []byte
}

func newServer(cfg Config, db *gorm.DB) (*server, error) {
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &server{
		cfg:       cfg,
		db:        db,
		auth:      newAuthenticator(cfg, db),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		summaries: newGenerationCache(summaryCacheTTL),
		authLimiter: newRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.TrustProxy,
			"Too many attempts from this IP, please try again later."),
		createLimiter: newRateLimiter(cfg.CreateRateLimit, cfg.CreateRateWindow, cfg.TrustProxy,
			"Too many job applications submitted, please try again later."),
		dummyHash: dummyHash,
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.Health)

	mux.HandleFunc("POST /api/v1/auth/register", s.authLimiter.middleware(s.Register))
	mux.HandleFunc("POST /api/v1/auth/login", s.authLimiter.middleware(s.Login))
	mux.HandleFunc("POST /api/v1/auth/logout", s.authLimiter.middleware(s.authMiddleware(s.Logout)))

	// Everything under /applications is scoped to the resolved user
	mux.HandleFunc("GET /api/v1/applications", s.authMiddleware(s.GetApplications))
	mux.HandleFunc("GET /api/v1/applications/summary", s.authMiddleware(s.GetApplicationSummary))
	mux.HandleFunc("POST /api/v1/applications", s.authMiddleware(s.createLimiter.middleware(s.CreateApplication)))
	mux.HandleFunc("POST /api/v1/applications/{$}", s.authMiddleware(s.createLimiter.middleware(s.CreateApplication)))
	mux.HandleFunc("GET /api/v1/applications/{id}", s.authMiddleware(s.GetApplicationByID))
	mux.HandleFunc("PUT /api/v1/applications/{id}", s.authMiddleware(s.UpdateApplication))
	mux.HandleFunc("DELETE /api/v1/applications/{id}", s.authMiddleware(s.DeleteApplication))

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}

func (s *server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalidf("Invalid JSON body.")
	}
	return nil
}

type credentialsRequest struct {
	EmailAddress string `json:"emailAddress" validate:"required,email,max=320"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
}

type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

func (s *server) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.EmailAddress = normalizeEmail(req.EmailAddress)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, invalidf("A valid emailAddress and a password of 8 to 72 characters are required."))
		return
	}

	var existing int64
	if err := s.db.WithContext(r.Context()).Model(&User{}).Where("email_address = ?", req.EmailAddress).Count(&existing).Error; err != nil {
		writeError(w, r, fmt.Errorf("check existing user: %w", err))
		return
	}
	if existing > 0 {
		writeError(w, r, ErrConflict)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			writeError(w, r, invalidf("Password is too long."))
			return
		}
		writeError(w, r, fmt.Errorf("hash password: %w", err))
		return
	}

	user := User{EmailAddress: req.EmailAddress, PasswordHash: string(passwordHash)}
	if err := s.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeError(w, r, ErrConflict)
			return
		}
		writeError(w, r, fmt.Errorf("create user: %w", err))
		return
	}
	log.Printf("[register] created user %s", user.ID)

	token, err := s.auth.Login(w, r, &user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Message: "User registered", Token: token})
}

func (s *server) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var user User
	err := s.db.WithContext(r.Context()).Where("email_address = ?", normalizeEmail(req.EmailAddress)).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, r, fmt.Errorf("load user for login: %w", err))
			return
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		writeErrorMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeErrorMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.auth.Login(w, r, &user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "Login Successful", Token: token})
}

func (s *server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(w, r); err != nil {
		log.Printf("[logout] failed for user %s: %v", currentUser(r).ID, err)
		writeErrorMessage(w, http.StatusInternalServerError, "Failed to log out user.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out user."})
}
