package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/mentorhub/internal/schema"
	"github.com/garnizeh/mentorhub/pkg/models"
	"github.com/garnizeh/mentorhub/pkg/repository"
)

type AuthHandler struct {
	users         repository.UserRepo
	schemas       *schema.Loader
	jwtSecret     string
	tokenDuration time.Duration
	bcryptCost    int
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
// A nil schema loader skips body validation.
func NewAuthHandler(users repository.UserRepo, schemas *schema.Loader, jwtSecret string, tokenDuration time.Duration, bcryptCost int) *AuthHandler {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthHandler{users: users, schemas: schemas, jwtSecret: jwtSecret, tokenDuration: tokenDuration, bcryptCost: bcryptCost}
}

type signupRequest struct {
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Password       string      `json:"password"`
	Mentorship     models.Role `json:"mentorship"`
	Bio            string      `json:"bio"`
	ProfilePicture string      `json:"profilePicture"`
	School         string      `json:"school"`
	Major          string      `json:"major"`
	Interest       string      `json:"interest"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, h.schemas, "signup", &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx := r.Context()

	existing, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		logger.Error("signup: lookup email", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "error creating user")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error hashing password")
		return
	}

	user := models.User{
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   string(hash),
		Mentorship:     req.Mentorship,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
		School:         req.School,
		Major:          req.Major,
		Interest:       req.Interest,
		Status:         models.StatusNone,
	}
	userID, err := h.users.CreateUser(ctx, &user)
	if err != nil {
		logger.Error("signup: create user", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "error creating user")
		return
	}

	tokenStr, err := h.issueToken(userID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error signing token")
		return
	}

	writeJSON(w, authResponse{Token: tokenStr, UserID: userID}, http.StatusCreated)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeBody(w, r, h.schemas, "signin", &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		logger.Error("signin: lookup email", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "credentials not found")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.Warn("signin: unusable password hash", slog.Int64("user_id", user.ID), slog.Any("err", err))
		}
		writeError(w, http.StatusUnauthorized, "credentials not found")
		return
	}

	tokenStr, err := h.issueToken(user.ID, user.TokenVersion)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error signing token")
		return
	}

	writeJSON(w, authResponse{Token: tokenStr, UserID: user.ID}, http.StatusOK)
}

// Signout revokes every token issued to the caller so far.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if err := h.users.BumpTokenVersion(r.Context(), userID); err != nil {
		logger.Error("signout: bump token version", slog.Int64("user_id", userID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, messageResponse{Message: "signed out"}, http.StatusOK)
}

func (h *AuthHandler) issueToken(userID, version int64) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:       userID,
		TokenVersion: version,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenDuration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}
