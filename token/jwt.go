package token

import (
	"crypto/rsa"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/mpraski/secret-vault/crypto"
	"github.com/mpraski/secret-vault/identity"
)

type (
	// Claims stored in an identity token. The subject carries the identity.
	Claims struct {
		jwt.StandardClaims
	}

	JWTParser struct {
		publicKey *rsa.PublicKey
	}

	JWTIssuer struct {
		privateKey *rsa.PrivateKey
		expiry     time.Duration
	}
)

var (
	_ Parser = (*JWTParser)(nil)
	_ Issuer = (*JWTIssuer)(nil)
)

func NewJWTParser(publicKey io.Reader) (*JWTParser, error) {
	p, err := crypto.ParsePublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return &JWTParser{publicKey: p}, nil
}

func (p *JWTParser) Parse(data string) (identity.Identity, error) {
	token, err := jwt.ParseWithClaims(data, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return p.publicKey, nil
	})

	if err != nil {
		return identity.Anonymous, fmt.Errorf("failed to parse identity token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return identity.Anonymous, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return identity.Anonymous, ErrTokenInvalid
	}

	return identity.Identity(claims.Subject), nil
}

func NewJWTIssuer(privateKey io.Reader, expiry time.Duration) (*JWTIssuer, error) {
	p, err := crypto.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &JWTIssuer{privateKey: p, expiry: expiry}, nil
}

func (i *JWTIssuer) Issue(of identity.Identity) (string, error) {
	now := time.Now()

	t := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   of.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.expiry).Unix(),
		},
	})

	s, err := t.SignedString(i.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign identity token: %w", err)
	}

	return s, nil
}
