package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"cardvault-api/internal/config"
	"cardvault-api/internal/httpx/mw"
)

const (
	refreshCookie = "refresh_token"
	tokenAccess   = "access"
	tokenRefresh  = "refresh"
)

// Claims represents JWT claims used by this service.
type Claims struct {
	Kind     string `json:"kind"`
	Use      string `json:"use"`
	DeviceID string `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies access and refresh tokens with one key set.
type Tokens struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	issuer    string
	audience  string
	access    time.Duration
	refresh   time.Duration
}

// NewTokens loads the signing keys named by cfg.JWT. RS256 without both PEM
// keys falls back to HS256.
func NewTokens(cfg *config.Config) (*Tokens, error) {
	t := &Tokens{
		issuer:   cfg.JWT.Issuer,
		audience: cfg.JWT.Audience,
		access:   time.Duration(cfg.JWT.AccessMin) * time.Minute,
		refresh:  time.Duration(cfg.JWT.RefreshDays) * 24 * time.Hour,
	}
	hs := func() (*Tokens, error) {
		if cfg.JWT.HSSecret == "" {
			return nil, errors.New("JWT_HS_SECRET required for HS256")
		}
		t.method, t.signKey, t.verifyKey = jwt.SigningMethodHS256, []byte(cfg.JWT.HSSecret), []byte(cfg.JWT.HSSecret)
		return t, nil
	}
	switch cfg.JWT.Algo {
	case "HS256", "":
		return hs()
	case "RS256":
		if cfg.JWT.RSPrivateKey == "" || cfg.JWT.RSPublicKey == "" {
			return hs()
		}
		priv, err := parseRSAPrivateKeyFromPEM([]byte(cfg.JWT.RSPrivateKey))
		if err != nil {
			return nil, err
		}
		pub, err := parseRSAPublicKeyFromPEM([]byte(cfg.JWT.RSPublicKey))
		if err != nil {
			return nil, err
		}
		t.method, t.signKey, t.verifyKey = jwt.SigningMethodRS256, priv, pub
		return t, nil
	}
	return nil, fmt.Errorf("unsupported JWT_ALGO %q", cfg.JWT.Algo)
}

func parseRSAPrivateKeyFromPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("invalid RSA private PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	k8, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := k8.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("unsupported PKCS8 private key type")
	}
	return key, nil
}

func parseRSAPublicKeyFromPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("invalid RSA public PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("unsupported public key type")
	}
	return key, nil
}

func (t *Tokens) sign(sub, use, deviceID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		Kind:     mw.KindUser,
		Use:      use,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			Subject:   sub,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(t.method, claims).SignedString(t.signKey)
}

// SignAccess issues a short-lived access token.
func (t *Tokens) SignAccess(sub, deviceID string) (string, error) {
	return t.sign(sub, tokenAccess, deviceID, t.access)
}

// SignRefresh issues a long-lived refresh token.
func (t *Tokens) SignRefresh(sub, deviceID string) (string, error) {
	return t.sign(sub, tokenRefresh, deviceID, t.refresh)
}

// Parse verifies a token of the given use and returns its claims.
func (t *Tokens) Parse(tokenStr, use string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
	)
	claims := &Claims{}
	if _, err := parser.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) { return t.verifyKey, nil }); err != nil {
		return nil, err
	}
	if claims.Use != use {
		return nil, fmt.Errorf("token use %q, want %q", claims.Use, use)
	}
	return claims, nil
}

// Parser adapts access-token verification to the JWT middleware.
func (t *Tokens) Parser() mw.TokenParser {
	return func(token string) (*mw.AuthContext, error) {
		claims, err := t.Parse(token, tokenAccess)
		if err != nil {
			return nil, err
		}
		return &mw.AuthContext{Subject: claims.Subject, Kind: claims.Kind, DeviceID: claims.DeviceID}, nil
	}
}

func (t *Tokens) expiresIn() int { return int(t.access / time.Second) }

// SetRefreshCookie sets the refresh token as HttpOnly cookie.
func (t *Tokens) SetRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    token,
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: "Lax",
		Path:     "/",
		MaxAge:   int(t.refresh / time.Second),
	})
}

// ClearRefreshCookie clears the refresh cookie.
func ClearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{Name: refreshCookie, Value: "", MaxAge: -1, Path: "/"})
}
