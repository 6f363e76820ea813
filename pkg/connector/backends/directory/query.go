package directory

import (
	"context"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/attrflow/attrflow/pkg/errors"
)

// SearchQuery is an immutable, ready-to-run directory search. The cache key
// is the rendered filter, so equal contexts share cache entries.
type SearchQuery struct {
	baseDN     string
	scope      int
	filter     string
	attributes []string
	sizeLimit  int
}

// CacheKey returns the rendered search filter
func (q *SearchQuery) CacheKey() string {
	return q.filter
}

// Filter returns the rendered search filter
func (q *SearchQuery) Filter() string {
	return q.filter
}

// Execute runs the search against a leased connection. An exceeded deadline
// surfaces as a timeout error, other failures as execution errors.
func (q *SearchQuery) Execute(ctx context.Context, conn *ldap.Conn) (*ldap.SearchResult, error) {
	timeLimit := 0
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, errors.Newf(errors.ErrorTypeTimeout,
				"deadline exceeded before directory search started")
		}
		conn.SetTimeout(remaining)
		timeLimit = int(remaining.Seconds()) + 1
	}

	request := ldap.NewSearchRequest(
		q.baseDN,
		q.scope,
		ldap.NeverDerefAliases,
		q.sizeLimit,
		timeLimit,
		false,
		q.filter,
		q.attributes,
		nil,
	)

	result, err := conn.Search(request)
	if err != nil {
		return nil, translateSearchError(ctx, err, q.filter)
	}
	return result, nil
}

// translateSearchError converts LDAP library failures into the common error
// taxonomy so backend-native errors never cross the orchestrator boundary
// unwrapped.
func translateSearchError(ctx context.Context, err error, filter string) error {
	switch {
	case ldap.IsErrorWithCode(err, ldap.LDAPResultTimeLimitExceeded),
		ctx.Err() == context.DeadlineExceeded:
		return errors.Wrap(err, errors.ErrorTypeTimeout,
			"directory search exceeded its deadline").WithDetail("filter", filter)
	case ldap.IsErrorWithCode(err, ldap.LDAPResultFilterError):
		return errors.Wrap(err, errors.ErrorTypeExecution,
			"directory rejected the search filter").WithDetail("filter", filter)
	default:
		return errors.Wrap(err, errors.ErrorTypeExecution,
			"directory search failed").WithDetail("filter", filter)
	}
}
