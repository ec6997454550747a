package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/niksmo/catalog-cache/internal/core/port"
	"github.com/niksmo/catalog-cache/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ChangeFeed = (*ProductEventsProducer)(nil)

// A ProductEventsProducer publishes synced product records to the
// change-feed topic, keyed by product id so that per-product ordering
// is preserved across partitions.
type ProductEventsProducer struct {
	cl       ProducerClient
	encoder  Encoder
	opPrefix string
}

func NewProductEventsProducer(
	opts ...ProducerOpt,
) (ProductEventsProducer, error) {
	const op = "NewProductEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return ProductEventsProducer{}, opErr(err, op)
		}
	}

	return ProductEventsProducer{
		cl:       options.cl,
		encoder:  options.encoder,
		opPrefix: "ProductEventsProducer",
	}, nil
}

func (p ProductEventsProducer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p ProductEventsProducer) PublishProducts(
	ctx context.Context, feedOp string, vs []domain.Product,
) error {
	const op = "PublishProducts"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	rs, err := p.createRecords(feedOp, vs)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

func (p ProductEventsProducer) createRecords(
	feedOp string, vs []domain.Product,
) (rs []*kgo.Record, err error) {
	const op = "createRecords"

	syncedAt := time.Now().UnixMilli()
	for _, v := range vs {
		s := productToEventV1(feedOp, syncedAt, v)
		b, err := p.encoder.Encode(s)
		if err != nil {
			return nil, opErr(err, p.opPrefix, op)
		}
		r := &kgo.Record{Key: []byte(s.ProductID), Value: b}
		rs = append(rs, r)
	}
	return rs, nil
}

func productToEventV1(
	feedOp string, syncedAt int64, v domain.Product,
) (s schema.ProductEventV1) {
	s.Op = feedOp
	s.ProductID = v.ID
	s.SKU = v.SKU
	s.Name = v.Name
	s.Price = v.Price
	s.CategoryID = v.CategoryID
	s.Tags = v.Tags
	s.SyncedAt = syncedAt

	s.Variants = make([]schema.ProductVariantV1, len(v.Variants))
	for i := range v.Variants {
		s.Variants[i].SKU = v.Variants[i].SKU
		s.Variants[i].Image = v.Variants[i].Image
		s.Variants[i].Stock = v.Variants[i].Stock
	}
	return
}
