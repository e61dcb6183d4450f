package service

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

type AuthService struct {
	users      repository.IUserRepository
	tokens     repository.ITokenRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	cost       int
	now        func() time.Time
}

func NewAuthService(users repository.IUserRepository, tokens repository.ITokenRepository, secret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		cost:       bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// SetClock replaces the time source used to issue and verify tokens.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Register creates a user with a hashed password.
func (s *AuthService) Register(email, password string, permissions, roles []string) (*model.User, error) {
	hashed, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{Email: email, Password: hashed, Permissions: permissions, Roles: roles}
	if err := s.users.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login checks the credentials and opens a session.
func (s *AuthService) Login(email, password string) (*model.SessionResponse, error) {
	log := logger.Log.WithField("email", email)

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Login attempt for unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !s.CheckPasswordHash(password, user.Password) {
		log.Warn("Login attempt with wrong password")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	log.WithField("user_id", user.ID).Info("Session created")

	return &model.SessionResponse{TokenPair: *pair, Permissions: user.Permissions, Roles: user.Roles}, nil
}

// Refresh rotates a refresh token: the presented one is consumed and a new
// pair is issued. A token can be used once.
func (s *AuthService) Refresh(refreshToken string) (*model.TokenPair, error) {
	stored, err := s.tokens.Consume(hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	if !s.now().Before(stored.ExpiresAt) {
		logger.Log.WithField("user_id", stored.UserID).Info("Expired refresh token presented")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetUserByID(stored.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return s.issue(user)
}

// ParseAccessToken verifies an access token. An expired token yields an
// error matching jwt.ErrTokenExpired.
func (s *AuthService) ParseAccessToken(tokenString string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) Me(userID int) (*model.MeResponse, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &model.MeResponse{Email: user.Email, Permissions: user.Permissions, Roles: user.Roles}, nil
}

// Logout revokes every refresh token of the user.
func (s *AuthService) Logout(userID int) error {
	if err := s.tokens.DeleteByUserID(userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *AuthService) issue(user *model.User) (*model.TokenPair, error) {
	now := s.now()
	claims := &model.AppClaims{
		UserID: user.ID,
		Email:  user.Email,
		Roles:  user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to sign JWT")
		return nil, fmt.Errorf("failed to sign token string: %w", err)
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	record := &model.RefreshToken{UserID: user.ID, TokenHash: hashToken(refresh), ExpiresAt: now.Add(s.refreshTTL)}
	if err := s.tokens.Create(record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenPair{Token: access, RefreshToken: refresh}, nil
}

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
