package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/port"
	"github.com/niksmo/kiksniks/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	_ port.EventProducer = (*EventsProducer)(nil)
	_ port.EventProducer = NopProducer{}
)

// An EventsProducer produces [domain.Event] keyed by the event id.
type EventsProducer struct {
	cl      ProducerClient
	encoder Encoder
}

func NewEventsProducer(opts ...ProducerOpt) (EventsProducer, error) {
	const op = "NewEventsProducer"

	if len(opts) != 2 {
		panic(fmt.Errorf("%s: %w", op, ErrTooFewOpts)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return EventsProducer{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return EventsProducer{options.cl, options.encoder}, nil
}

func (p EventsProducer) Close() {
	const op = "EventsProducer.Close"
	log := slog.With("op", op)
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p EventsProducer) ProduceEvent(ctx context.Context, e domain.Event) error {
	const op = "EventsProducer.ProduceEvent"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r, err := p.createRecord(e)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res := p.cl.ProduceSync(ctx, r)
	if err := res.FirstErr(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	slog.Debug("event produced", "op", op, "eventID", e.ID, "kind", e.Kind)
	return nil
}

func (p EventsProducer) createRecord(e domain.Event) (*kgo.Record, error) {
	const op = "EventsProducer.createRecord"

	s := toSchema(e)
	v, err := p.encoder.Encode(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &kgo.Record{Key: []byte(s.EventID), Value: v}, nil
}

func toSchema(e domain.Event) (s schema.StorefrontEventV1) {
	s.EventID = e.ID
	s.Kind = string(e.Kind)
	s.Name = e.Name
	s.Email = e.Email
	s.Phone = e.Phone
	s.Subject = e.Subject
	s.Message = e.Message
	s.Total = e.Total
	s.CreatedAt = e.CreatedAt

	s.Items = make([]schema.InquiryItemV1, len(e.Items))
	for i, it := range e.Items {
		s.Items[i] = schema.InquiryItemV1{
			Name:     it.Name,
			Color:    it.Color,
			Size:     it.Size,
			Quantity: it.Quantity,
			Price:    it.Price,
		}
	}
	return s
}

// NopProducer drops events. It stands in when no brokers are configured.
type NopProducer struct{}

func (NopProducer) ProduceEvent(_ context.Context, e domain.Event) error {
	slog.Debug("event dropped", "op", "NopProducer.ProduceEvent", "eventID", e.ID)
	return nil
}

func (NopProducer) Close() {}
