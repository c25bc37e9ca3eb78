package audit

import "context"

// Multi fans a record out to every configured sink, in order.
type Multi struct {
	emitters []Emitter
}

var _ Emitter = (*Multi)(nil)

func NewMulti(emitters ...Emitter) *Multi {
	return &Multi{emitters: emitters}
}

func (m *Multi) Emit(ctx context.Context, r Record) {
	for _, e := range m.emitters {
		e.Emit(ctx, r)
	}
}
