// Package vault implements the single-owner secret store. One identity is
// bound as owner at construction and is the only caller allowed to read or
// write the secret; every successful write emits exactly one audit record.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mpraski/secret-vault/audit"
	"github.com/mpraski/secret-vault/identity"
	"github.com/mpraski/secret-vault/store"
)

type Vault struct {
	mu      sync.Mutex
	owner   identity.Identity
	getter  store.Getter
	setter  store.Setter
	emitter audit.Emitter
}

var (
	// ErrNotOwner is the single authorization failure kind, returned to
	// any caller whose identity does not equal the bound owner.
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrUnavailable surfaces persistence failures unchanged; it carries
	// no authorization meaning.
	ErrUnavailable = errors.New("store unavailable")
)

const secretKey = "vault:secret"

// New binds the creator as the vault's owner. The binding is permanent:
// nothing in the API can reassign it.
func New(creator identity.Identity, getter store.Getter, setter store.Setter, emitter audit.Emitter) *Vault {
	return &Vault{
		owner:   creator,
		getter:  getter,
		setter:  setter,
		emitter: emitter,
	}
}

// Owner reports the identity bound at construction.
func (v *Vault) Owner() identity.Identity { return v.owner }

// authorize is the one authorization predicate shared by every operation
// touching the secret. Pure in (owner, caller); anonymous callers never
// pass, even against a misconfigured empty owner.
func (v *Vault) authorize(caller identity.Identity) error {
	if caller.IsAnonymous() || caller != v.owner {
		return ErrNotOwner
	}

	return nil
}

// Write replaces the secret. The authorization check runs first,
// unconditionally; a rejected call has no side effect at all. A successful
// write emits exactly one audit record, after the mutation and before
// returning. Identical consecutive writes are not deduplicated.
func (v *Vault) Write(ctx context.Context, caller identity.Identity, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.authorize(caller); err != nil {
		return err
	}

	if err := v.setter.Set(ctx, secretKey, value, 0); err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	v.emitter.Emit(ctx, audit.NewRecord(caller, value))

	return nil
}

// Read returns the current secret to the owner. Any other caller gets
// ErrNotOwner and nothing else: the error is identical whether the secret
// is empty or set. A secret never written reads as the empty string.
// Reads emit no audit record.
func (v *Vault) Read(ctx context.Context, caller identity.Identity) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.authorize(caller); err != nil {
		return "", err
	}

	value, err := v.getter.Get(ctx, secretKey)

	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	return value, nil
}
