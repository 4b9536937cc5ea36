// Package auth issues and verifies user tokens and tracks live sessions.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bayarwoi/wallet/models"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// UserStore is the persistence contract for user records.
type UserStore interface {
	InsertUser(ctx context.Context, u models.User) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
}

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 24 * time.Hour

// Manager handles registration, login, logout, and token verification.
// Tokens are HS256 JWTs carrying a session id; logout revokes the session
// so a structurally valid token stops working.
type Manager struct {
	secret   []byte
	users    UserStore
	sessions *Sessions
}

func NewManager(secret []byte, users UserStore, sessions *Sessions) *Manager {
	return &Manager{secret: secret, users: users, sessions: sessions}
}

// Register creates a user with a bcrypt password hash.
func (m *Manager) Register(ctx context.Context, in models.RegisterInput) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	now := time.Now().UTC()
	return m.users.InsertUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Login verifies credentials and opens a session, returning the signed
// token.
func (m *Manager) Login(ctx context.Context, in models.LoginInput) (string, models.User, error) {
	u, err := m.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, tokenID, err := m.sign(u.ID)
	if err != nil {
		return "", models.User{}, err
	}
	m.sessions.SignIn(tokenID, u.ID)
	return token, u, nil
}

// Logout revokes the session behind a token.
func (m *Manager) Logout(tokenStr string) {
	userID, tokenID, err := m.parse(tokenStr)
	if err != nil || userID == "" {
		return
	}
	m.sessions.SignOut(tokenID)
}

// Refresh exchanges a valid token for a fresh one, extending the session.
func (m *Manager) Refresh(tokenStr string) (string, error) {
	userID, tokenID, err := m.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if _, ok := m.sessions.Active(tokenID); !ok {
		return "", ErrInvalidToken
	}
	token, newTokenID, err := m.sign(userID)
	if err != nil {
		return "", err
	}
	m.sessions.Refresh(tokenID, newTokenID, userID)
	return token, nil
}

// Verify resolves a token to the user id it belongs to, rejecting tokens
// whose session was revoked.
func (m *Manager) Verify(tokenStr string) (string, error) {
	userID, tokenID, err := m.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if _, ok := m.sessions.Active(tokenID); !ok {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// User loads the user record behind an id.
func (m *Manager) User(ctx context.Context, id string) (models.User, error) {
	return m.users.GetUser(ctx, id)
}

func (m *Manager) sign(userID string) (token, tokenID string, err error) {
	tokenID = uuid.NewString()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": tokenID,
		"iat": now.Unix(),
		"exp": now.Add(TokenTTL).Unix(),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return token, tokenID, err
}

func (m *Manager) parse(tokenStr string) (userID, tokenID string, err error) {
	tkn, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return "", "", ErrInvalidToken
	}
	claims, ok := tkn.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}
	userID, _ = claims["sub"].(string)
	tokenID, _ = claims["jti"].(string)
	if userID == "" || tokenID == "" {
		return "", "", ErrInvalidToken
	}
	return userID, tokenID, nil
}
