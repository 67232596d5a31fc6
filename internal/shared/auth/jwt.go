package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the identity contained in an identity-provider session token.
type Claims struct {
	OrgID   string `json:"org_id,omitempty"`
	OrgRole string `json:"org_role,omitempty"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken  = errors.New("invalid token")
	errMissingSecret = errors.New("jwt secret not configured")
)

// VerifierConfig selects the verification key. PublicKeyFile (RS256) wins over Secret (HS256).
type VerifierConfig struct {
	Secret        string
	PublicKeyFile string
	Issuer        string
	Env           string
}

// Verifier validates bearer tokens.
type Verifier struct {
	hmacKey []byte
	rsaKey  *rsa.PublicKey
	issuer  string
}

// NewVerifier builds a Verifier from config.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	v := &Verifier{issuer: strings.TrimSpace(cfg.Issuer)}

	if path := strings.TrimSpace(cfg.PublicKeyFile); path != "" {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read jwt public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("parse jwt public key: %w", err)
		}
		v.rsaKey = key
		return v, nil
	}

	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		env := strings.ToLower(strings.TrimSpace(cfg.Env))
		if env == "production" || env == "prod" {
			return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
		secret = "dev-secret"
	}
	v.hmacKey = []byte(secret)
	return v, nil
}

// Verify parses and validates a token, returning its claims.
func (v *Verifier) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.rsaKey != nil {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	} else {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.keyFunc, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (v *Verifier) keyFunc(*jwt.Token) (any, error) {
	if v.rsaKey != nil {
		return v.rsaKey, nil
	}
	return v.hmacKey, nil
}

// SignHS256 signs claims with the given secret. Used by tests and local tooling.
func SignHS256(secret string, claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("sub is required")
	}
	now := time.Now().UTC()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(24 * time.Hour))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
