package keyvalue

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/attrflow/attrflow/pkg/errors"
)

// RecordFormat selects how stored records are laid out
type RecordFormat string

const (
	// FormatJSON reads the key as a string holding a JSON document
	FormatJSON RecordFormat = "json"
	// FormatHash reads the key as a hash of single-valued fields
	FormatHash RecordFormat = "hash"
)

// Record is the raw lookup result. Found distinguishes "no stored record"
// from an empty one, so the no-result policy applies at the right layer.
type Record struct {
	Found  bool
	JSON   []byte
	Fields map[string]string
}

// LookupQuery is an immutable storage-service lookup. The cache key is the
// rendered storage key.
type LookupQuery struct {
	key    string
	format RecordFormat
}

// CacheKey returns the rendered storage key
func (q *LookupQuery) CacheKey() string {
	return q.key
}

// Key returns the rendered storage key
func (q *LookupQuery) Key() string {
	return q.key
}

// Execute looks up the stored record. A missing key is a found=false
// record, not an error; an exceeded deadline is a timeout error.
func (q *LookupQuery) Execute(ctx context.Context, client *redis.Client) (*Record, error) {
	switch q.format {
	case FormatHash:
		fields, err := client.HGetAll(ctx, q.key).Result()
		if err != nil {
			return nil, translateLookupError(ctx, err, q.key)
		}
		return &Record{Found: len(fields) > 0, Fields: fields}, nil

	default:
		payload, err := client.Get(ctx, q.key).Bytes()
		if err == redis.Nil {
			return &Record{Found: false}, nil
		}
		if err != nil {
			return nil, translateLookupError(ctx, err, q.key)
		}
		return &Record{Found: true, JSON: payload}, nil
	}
}

// translateLookupError converts client failures into the common error
// taxonomy at the binding boundary.
func translateLookupError(ctx context.Context, err error, key string) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Wrap(err, errors.ErrorTypeTimeout,
			"storage lookup exceeded its deadline").WithDetail("key", key)
	}
	return errors.Wrap(err, errors.ErrorTypeExecution,
		"storage lookup failed").WithDetail("key", key)
}
