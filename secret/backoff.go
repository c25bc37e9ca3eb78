package secret

import (
	"context"
	"time"
)

// BackoffSource retries a flaky underlying source, sleeping between
// attempts.
type BackoffSource struct {
	tries   int
	backoff time.Duration
	source  Source
}

var _ Source = (*BackoffSource)(nil)

func NewBackoffSource(tries int, backoff time.Duration, source Source) *BackoffSource {
	return &BackoffSource{tries: tries, backoff: backoff, source: source}
}

func (s *BackoffSource) Get(ctx context.Context, name string) (Secret, error) {
	var (
		secret Secret
		err    error
	)

	for i := 0; i < s.tries; i++ {
		if secret, err = s.source.Get(ctx, name); err == nil {
			return secret, nil
		}

		time.Sleep(s.backoff)
	}

	return nil, err
}
