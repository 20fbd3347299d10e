// README: Redis broadcaster; publishes events on a pub/sub channel and mirrors driver positions.
package broadcast

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ridesim/internal/modules/location"
)

const (
	EventsChannel  = "ridesim:events"
	publishTimeout = 2 * time.Second
)

type Publisher struct {
	redis *redis.Client
	geo   *location.Store
	log   logrus.FieldLogger
}

func NewPublisher(rdb *redis.Client, log logrus.FieldLogger) *Publisher {
	return &Publisher{redis: rdb, geo: location.NewStore(rdb), log: log}
}

func (p *Publisher) LocationUpdate(ctx context.Context, u LocationUpdate) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.geo.SetGeo(ctx, u.DriverID, u.Location); err != nil {
		p.log.WithError(err).WithField("driver_id", u.DriverID).Warn("mirror driver position")
	}
	p.publish(ctx, EventLocationUpdate, u)
}

func (p *Publisher) RideStatus(ctx context.Context, s RideStatus) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	p.publish(ctx, EventRideStatus, s)
}

func (p *Publisher) publish(ctx context.Context, event string, data any) {
	msg, err := encode(event, data)
	if err != nil {
		p.log.WithError(err).Error("encode event")
		return
	}
	if err := p.redis.Publish(ctx, EventsChannel, msg).Err(); err != nil {
		p.log.WithError(err).WithField("event", event).Warn("publish event")
	}
}
