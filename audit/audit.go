package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mpraski/secret-vault/identity"
)

type (
	// Record captures a single successful write: who wrote and what was
	// written. The value is carried in clear, matching what the store
	// itself persists.
	Record struct {
		ID    uuid.UUID         `json:"id"`
		By    identity.Identity `json:"by"`
		Value string            `json:"value"`
		At    time.Time         `json:"at"`
	}

	// Emitter receives one record per successful write, in write order.
	// Emission is fire-and-forget: implementations must not fail the
	// write that produced the record.
	Emitter interface {
		Emit(context.Context, Record)
	}
)

func NewRecord(by identity.Identity, value string) Record {
	return Record{
		ID:    uuid.New(),
		By:    by,
		Value: value,
		At:    time.Now().UTC(),
	}
}
