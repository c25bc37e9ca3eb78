package audit

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Publisher pushes records onto a redis pub/sub channel for external
// consumers. Publish failures are logged and swallowed: the mutation the
// record describes has already committed.
type Publisher struct {
	client  *redis.Client
	channel string
}

var _ Emitter = (*Publisher)(nil)

func NewPublisher(client *redis.Client, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

func (p *Publisher) Emit(ctx context.Context, r Record) {
	b, err := json.Marshal(r)
	if err != nil {
		log.WithField("record_id", r.ID.String()).Warnf("failed to encode audit record: %v", err)
		return
	}

	if err := p.client.Publish(ctx, p.channel, b).Err(); err != nil {
		log.WithField("record_id", r.ID.String()).Warnf("failed to publish audit record: %v", err)
	}
}
