package token

import (
	"errors"

	"github.com/mpraski/secret-vault/identity"
)

type (
	// Parser turns a serialized token into the identity it certifies.
	Parser interface {
		Parse(string) (identity.Identity, error)
	}

	// Issuer mints a token certifying the given identity.
	Issuer interface {
		Issue(identity.Identity) (string, error)
	}
)

var ErrTokenInvalid = errors.New("token is invalid")
