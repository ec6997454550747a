package schema

import (
	"context"

	"github.com/twmb/franz-go/pkg/sr"
)

// A SchemaIdentifier resolves an avro schema text to its registry id.
type SchemaIdentifier interface {
	DetermineID(
		ctx context.Context, subject string, avroSchemaText string,
	) (id int, err error)
}

// A SchemaCreater registers schemas in the confluent-compatible
// schema registry, creating the subject when it does not exist yet.
type SchemaCreater struct {
	cl *sr.Client
}

func NewSchemaCreater(cl *sr.Client) SchemaCreater {
	return SchemaCreater{cl}
}

func (c SchemaCreater) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (int, error) {
	ss, err := c.cl.CreateSchema(ctx, subject, sr.Schema{
		Type:   sr.TypeAvro,
		Schema: avroSchemaText,
	})
	if err != nil {
		return 0, err
	}
	return ss.ID, nil
}
