package secret

import "context"

type (
	Secret = []byte

	// Source resolves named secrets (key material, store credentials)
	// from wherever the deployment keeps them.
	Source interface {
		Get(context.Context, string) (Secret, error)
	}
)
