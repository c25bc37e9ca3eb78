package vault_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mpraski/secret-vault/audit"
	"github.com/mpraski/secret-vault/identity"
	"github.com/mpraski/secret-vault/store"
	"github.com/mpraski/secret-vault/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner    identity.Identity = "alice"
	attacker identity.Identity = "mallory"
)

type recordingEmitter struct {
	mu      sync.Mutex
	records []audit.Record
}

func (e *recordingEmitter) Emit(_ context.Context, r audit.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.records = append(e.records, r)
}

func (e *recordingEmitter) Records() []audit.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]audit.Record(nil), e.records...)
}

type failingStore struct{ err error }

func (f *failingStore) Get(context.Context, string) (string, error) { return "", f.err }

func (f *failingStore) Set(context.Context, string, string, time.Duration) error { return f.err }

func newVault() (*vault.Vault, *recordingEmitter) {
	var (
		emitter = &recordingEmitter{}
		memory  = store.NewMemoryStore()
	)

	return vault.New(owner, memory, memory, emitter), emitter
}

func TestOwnerWriteThenRead(t *testing.T) {
	v, emitter := newVault()
	ctx := context.Background()

	require.NoError(t, v.Write(ctx, owner, "alpha"))

	got, err := v.Read(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got)

	records := emitter.Records()
	require.Len(t, records, 1)
	assert.Equal(t, owner, records[0].By)
	assert.Equal(t, "alpha", records[0].Value)
	assert.NotZero(t, records[0].ID)
}

func TestReadBeforeAnyWrite(t *testing.T) {
	v, emitter := newVault()

	got, err := v.Read(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "", got)
	assert.Empty(t, emitter.Records())
}

func TestNonOwnerWriteRejected(t *testing.T) {
	v, emitter := newVault()
	ctx := context.Background()

	require.NoError(t, v.Write(ctx, owner, "alpha"))

	for _, value := range []string{"hacked", "", "alpha"} {
		err := v.Write(ctx, attacker, value)
		require.ErrorIs(t, err, vault.ErrNotOwner)
	}

	got, err := v.Read(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got, "rejected writes must not change the secret")

	assert.Len(t, emitter.Records(), 1, "rejected writes must not emit audit records")
}

func TestNonOwnerReadRejected(t *testing.T) {
	v, _ := newVault()
	ctx := context.Background()

	// The rejection must look the same whether the secret is unset or set.
	got, errBefore := v.Read(ctx, attacker)
	require.ErrorIs(t, errBefore, vault.ErrNotOwner)
	assert.Equal(t, "", got)

	require.NoError(t, v.Write(ctx, owner, "alpha"))

	got, errAfter := v.Read(ctx, attacker)
	require.ErrorIs(t, errAfter, vault.ErrNotOwner)
	assert.Equal(t, "", got)

	assert.Equal(t, errBefore.Error(), errAfter.Error())
}

func TestAnonymousCallerRejected(t *testing.T) {
	v, _ := newVault()
	ctx := context.Background()

	require.ErrorIs(t, v.Write(ctx, identity.Anonymous, "x"), vault.ErrNotOwner)

	_, err := v.Read(ctx, identity.Anonymous)
	require.ErrorIs(t, err, vault.ErrNotOwner)
}

func TestAnonymousNeverMatchesEmptyOwner(t *testing.T) {
	memory := store.NewMemoryStore()
	v := vault.New(identity.Anonymous, memory, memory, &recordingEmitter{})

	require.ErrorIs(t, v.Write(context.Background(), identity.Anonymous, "x"), vault.ErrNotOwner)
}

func TestEveryWriteEmitsExactlyOneRecord(t *testing.T) {
	v, emitter := newVault()
	ctx := context.Background()

	values := []string{"one", "two", "two", "three"}
	for _, value := range values {
		require.NoError(t, v.Write(ctx, owner, value))
	}

	records := emitter.Records()
	require.Len(t, records, len(values), "duplicate writes are not deduplicated")

	for i, r := range records {
		assert.Equal(t, values[i], r.Value)
		assert.Equal(t, owner, r.By)
	}
}

func TestReadEmitsNoRecord(t *testing.T) {
	v, emitter := newVault()
	ctx := context.Background()

	require.NoError(t, v.Write(ctx, owner, "alpha"))

	for i := 0; i < 3; i++ {
		_, err := v.Read(ctx, owner)
		require.NoError(t, err)
	}

	assert.Len(t, emitter.Records(), 1)
}

func TestOwnerIsImmutable(t *testing.T) {
	v, _ := newVault()
	ctx := context.Background()

	require.Equal(t, owner, v.Owner())

	_ = v.Write(ctx, owner, "alpha")
	_ = v.Write(ctx, attacker, "hacked")
	_, _ = v.Read(ctx, owner)
	_, _ = v.Read(ctx, attacker)

	assert.Equal(t, owner, v.Owner())
}

func TestStoreFailuresSurfaceAsUnavailable(t *testing.T) {
	var (
		emitter = &recordingEmitter{}
		broken  = &failingStore{err: errors.New("connection refused")}
		v       = vault.New(owner, broken, broken, emitter)
		ctx     = context.Background()
	)

	err := v.Write(ctx, owner, "alpha")
	require.ErrorIs(t, err, vault.ErrUnavailable)
	assert.NotErrorIs(t, err, vault.ErrNotOwner)

	_, err = v.Read(ctx, owner)
	require.ErrorIs(t, err, vault.ErrUnavailable)

	assert.Empty(t, emitter.Records(), "a write that never committed must not be audited")
}

func TestAuthorizationStillGatesUnavailableStore(t *testing.T) {
	broken := &failingStore{err: errors.New("connection refused")}
	v := vault.New(owner, broken, broken, &recordingEmitter{})

	// The guard runs first: a non-owner learns nothing about the store.
	require.ErrorIs(t, v.Write(context.Background(), attacker, "x"), vault.ErrNotOwner)
}

func TestConcurrentWrites(t *testing.T) {
	v, emitter := newVault()
	ctx := context.Background()

	const writes = 50

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := 0; i < writes; i++ {
			assert.NoError(t, v.Write(ctx, owner, fmt.Sprintf("value-%d", i)))
		}
	}()

	go func() {
		defer wg.Done()

		for i := 0; i < writes; i++ {
			assert.ErrorIs(t, v.Write(ctx, attacker, "hacked"), vault.ErrNotOwner)

			_, err := v.Read(ctx, attacker)
			assert.ErrorIs(t, err, vault.ErrNotOwner)
		}
	}()

	wg.Wait()

	got, err := v.Read(ctx, owner)
	require.NoError(t, err)
	assert.Contains(t, got, "value-", "final secret must come from an authorized write")
	assert.Len(t, emitter.Records(), writes)
}
