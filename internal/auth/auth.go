package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/atelierhub/workshop-management/internal"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithPermissions(userID string) (*internal.SessionUser, error)
	HashPassword(password string) (string, error)
}

type RepositoryAPI interface {
	GetCredentialsForUsername(username string) (*Credentials, error)
	GetUserWithPermissions(userID string) (*internal.SessionUser, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID, username string) (token string, err error)
	GenerateRefreshToken(userID, username string) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// Credentials is the minimal projection the repository returns for a login
// attempt. Status is checked before the password so a deactivated account
// never authenticates.
type Credentials struct {
	UserID       string
	PasswordHash string
	Status       string
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
