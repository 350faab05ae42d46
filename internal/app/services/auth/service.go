// Package auth registers and authenticates users and issues the bearer
// tokens checked on every protected route.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/taskflow-app/taskflow/internal/errors"

	"github.com/taskflow-app/taskflow/internal/app/domain/user"
	"github.com/taskflow-app/taskflow/internal/app/storage"
	"github.com/taskflow-app/taskflow/pkg/logger"
)

// TokenTTL is how long an issued bearer token stays valid.
const TokenTTL = 7 * 24 * time.Hour

// Claims is the JWT payload carried by TaskFlow tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Service handles registration, login and token verification.
type Service struct {
	store  storage.UserStore
	secret []byte
	log    *logger.Logger
}

// New constructs an auth service signing tokens with secret.
func New(store storage.UserStore, secret string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{store: store, secret: []byte(secret), log: log}
}

// Register creates a user with a bcrypt-hashed password and returns a fresh
// token alongside the safe user representation. A duplicate email fails
// with a conflict.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, user.SafeUser, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return "", user.SafeUser{}, apperrors.Validation("name, email and password are required")
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return "", user.SafeUser{}, apperrors.Conflict("user already exists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", user.SafeUser{}, apperrors.Internal("", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", user.SafeUser{}, apperrors.Internal("", err)
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return "", user.SafeUser{}, apperrors.Internal("", err)
	}

	token, err := s.issueToken(created.ID)
	if err != nil {
		return "", user.SafeUser{}, apperrors.Internal("", err)
	}

	s.log.WithField("user_id", created.ID).Info("user registered")
	return token, created.Safe(), nil
}

// Login verifies credentials and returns a fresh token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, user.SafeUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", user.SafeUser{}, apperrors.Validation("invalid email or password")
		}
		return "", user.SafeUser{}, apperrors.Internal("", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", user.SafeUser{}, apperrors.Validation("invalid email or password")
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return "", user.SafeUser{}, apperrors.Internal("", err)
	}

	s.log.WithField("user_id", u.ID).Info("user logged in")
	return token, u.Safe(), nil
}

// Authenticate validates a bearer token and resolves it to the acting user.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (user.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return user.User{}, apperrors.InvalidToken(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return user.User{}, apperrors.InvalidToken(nil)
	}

	u, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return user.User{}, apperrors.InvalidToken(err)
	}
	return u, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "taskflow",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
