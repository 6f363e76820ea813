package document

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/attrflow/attrflow/pkg/errors"
)

// DocumentResult is the raw lookup result. Found distinguishes "no stored
// document" from an empty one, so the no-result policy applies at the
// right layer.
type DocumentResult struct {
	Found  bool
	Fields bson.M
}

// FindQuery is an immutable single-document lookup. The cache key is the
// collection together with the rendered match condition.
type FindQuery struct {
	database   string
	collection string
	field      string
	value      string
}

// CacheKey identifies the lookup by collection and match condition
func (q *FindQuery) CacheKey() string {
	return q.collection + "|" + q.field + "=" + q.value
}

// Execute fetches the first matching document. A missing document is a
// found=false result, not an error; an exceeded deadline is a timeout
// error.
func (q *FindQuery) Execute(ctx context.Context, client *mongo.Client) (*DocumentResult, error) {
	coll := client.Database(q.database).Collection(q.collection)

	var fields bson.M
	err := coll.FindOne(ctx, bson.D{{Key: q.field, Value: q.value}}).Decode(&fields)
	if err == mongo.ErrNoDocuments {
		return &DocumentResult{Found: false}, nil
	}
	if err != nil {
		return nil, translateFindError(ctx, err, q.collection)
	}
	return &DocumentResult{Found: true, Fields: fields}, nil
}

// translateFindError converts driver failures into the common error
// taxonomy at the binding boundary.
func translateFindError(ctx context.Context, err error, collection string) error {
	if ctx.Err() == context.DeadlineExceeded || mongo.IsTimeout(err) {
		return errors.Wrap(err, errors.ErrorTypeTimeout,
			"document lookup exceeded its deadline").WithDetail("collection", collection)
	}
	return errors.Wrap(err, errors.ErrorTypeExecution,
		"document lookup failed").WithDetail("collection", collection)
}
