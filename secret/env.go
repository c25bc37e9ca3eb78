package secret

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
)

type EnvSource struct{}

var ErrSecretNotFound = errors.New("secret_not_found")

var _ Source = (*EnvSource)(nil)

func NewEnvSource() *EnvSource { return &EnvSource{} }

func (s *EnvSource) Get(_ context.Context, name string) (Secret, error) {
	v := os.Getenv(name)
	if v == "" {
		return nil, ErrSecretNotFound
	}

	// Values may arrive base64-wrapped; fall back to the raw bytes.
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}

	return []byte(v), nil
}
