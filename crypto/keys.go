package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
)

var ErrPemDecodeFailed = errors.New("failed to decode pem data")

func ParsePublicKey(source io.Reader) (*rsa.PublicKey, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from source: %w", err)
	}

	p, _ := pem.Decode(data)
	if p == nil {
		return nil, ErrPemDecodeFailed
	}

	if p.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("public key is not RSA format: %s", p.Type)
	}

	r, err := x509.ParsePKIXPublicKey(p.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	k, ok := r.(*rsa.PublicKey)
	if !ok {
		return nil, ErrPemDecodeFailed
	}

	return k, nil
}

func ParsePrivateKey(source io.Reader) (*rsa.PrivateKey, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from source: %w", err)
	}

	p, _ := pem.Decode(data)
	if p == nil {
		return nil, ErrPemDecodeFailed
	}

	if p.Type != "RSA PRIVATE KEY" {
		return nil, fmt.Errorf("private key is not RSA format: %s", p.Type)
	}

	r, err := x509.ParsePKCS1PrivateKey(p.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return r, nil
}
