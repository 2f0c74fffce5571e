// Package services provides external service integrations and technical concerns like tokens, media storage and events
package services

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/photo-moderation/utils"
	"github.com/golang-jwt/jwt/v5"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenService issues and validates access tokens for acting users
type TokenService interface {
	GenerateAccessToken(userID uint, username string, roles []string) (string, error)
	ValidateToken(token string) (*TokenClaims, error)
}

// TokenClaims represents the claims in an access token
type TokenClaims struct {
	UserID   uint     `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasAnyRole reports whether the claims carry at least one of roles
func (c *TokenClaims) HasAnyRole(roles ...string) bool {
	for _, have := range c.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// TokenServiceImpl implements TokenService
type TokenServiceImpl struct {
	accessTokenTTL time.Duration
	signingMethod  jwt.SigningMethod
	privateKey     *rsa.PrivateKey
	publicKey      *rsa.PublicKey
	secretKey      []byte
	useRSAKeys     bool
	issuer         string
	audience       string
}

// NewTokenService creates a new token service
func NewTokenService(accessTokenTTL time.Duration, issuer, audience string, useRSAKeys bool, privateKeyPEM, publicKeyPEM, secretKey string) (TokenService, error) {
	s := &TokenServiceImpl{
		accessTokenTTL: accessTokenTTL,
		useRSAKeys:     useRSAKeys,
		issuer:         issuer,
		audience:       audience,
	}

	if useRSAKeys {
		privateKey, publicKey, err := parseRSAKeys(privateKeyPEM, publicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA keys: %w", err)
		}
		s.privateKey, s.publicKey = privateKey, publicKey
		s.signingMethod = jwt.SigningMethodRS256
		return s, nil
	}

	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required when not using RSA keys")
	}
	s.secretKey = []byte(secretKey)
	s.signingMethod = jwt.SigningMethodHS256
	return s, nil
}

// parseRSAKeys parses RSA private and public keys from PEM format
func parseRSAKeys(privateKeyPEM, publicKeyPEM string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	if privateKeyPEM == "" || publicKeyPEM == "" {
		return nil, nil, fmt.Errorf("both private and public keys are required")
	}

	privateKeyBlock, _ := pem.Decode([]byte(privateKeyPEM))
	if privateKeyBlock == nil {
		return nil, nil, fmt.Errorf("failed to decode private key")
	}
	privateKey, err := x509.ParsePKCS1PrivateKey(privateKeyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	publicKeyBlock, _ := pem.Decode([]byte(publicKeyPEM))
	if publicKeyBlock == nil {
		return nil, nil, fmt.Errorf("failed to decode public key")
	}
	publicKey, err := x509.ParsePKIXPublicKey(publicKeyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	rsaPublicKey, ok := publicKey.(*rsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("public key is not RSA")
	}

	return privateKey, rsaPublicKey, nil
}

// GenerateAccessToken signs a token for the given user
func (s *TokenServiceImpl) GenerateAccessToken(userID uint, username string, roles []string) (string, error) {
	now := utils.UTCNow()

	tokenID, err := generateTokenID()
	if err != nil {
		return "", err
	}

	claims := TokenClaims{
		UserID:   userID,
		Username: username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(s.signingMethod, claims)
	if s.useRSAKeys {
		return token.SignedString(s.privateKey)
	}
	return token.SignedString(s.secretKey)
}

// ValidateToken validates a token and returns its claims
func (s *TokenServiceImpl) ValidateToken(token string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid || claims.UserID == 0 || claims.Username == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func (s *TokenServiceImpl) keyFunc(token *jwt.Token) (any, error) {
	if s.useRSAKeys {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.publicKey, nil
	}
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secretKey, nil
}

// generateTokenID generates a unique token ID
func generateTokenID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
