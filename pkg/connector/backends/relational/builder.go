package relational

import (
	"fmt"
	"strings"

	"database/sql"

	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/template"
)

// ParamStyle selects the bind-parameter placeholder syntax of the driver
type ParamStyle string

const (
	// ParamStyleQuestion uses ? placeholders (MySQL)
	ParamStyleQuestion ParamStyle = "question"
	// ParamStyleDollar uses $1, $2 placeholders (PostgreSQL)
	ParamStyleDollar ParamStyle = "dollar"
)

// StatementBuilder renders a SQL statement template against the resolution
// context. Each {name} placeholder becomes a bind parameter in order of
// appearance, so substituted values never enter the statement text. The
// cache key combines the static statement with the bound values and is
// deterministic for equal contexts.
type StatementBuilder struct {
	tmpl  *template.Template
	style ParamStyle
}

// NewStatementBuilder creates a relational query builder
func NewStatementBuilder(tmpl *template.Template, style ParamStyle) (*StatementBuilder, error) {
	switch style {
	case ParamStyleQuestion, ParamStyleDollar:
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"unknown parameter style %q", style)
	}
	return &StatementBuilder{tmpl: tmpl, style: style}, nil
}

// Build produces the parameterized statement. A placeholder the context
// cannot satisfy is a query construction error; no partially-built query is
// returned.
func (b *StatementBuilder) Build(rc *core.ResolutionContext) (core.ExecutableQuery[*sql.Conn, *RowSet], error) {
	names := b.tmpl.Names()
	args := make([]interface{}, 0, len(names))
	placeholders := make(map[string]string, len(names))

	for _, name := range names {
		value, ok := rc.SubstitutionValue(name)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeQueryConstruction,
				"no value for placeholder %q in statement template", name)
		}

		switch b.style {
		case ParamStyleDollar:
			// A repeated name reuses its positional parameter
			if _, bound := placeholders[name]; bound {
				continue
			}
			args = append(args, value)
			placeholders[name] = fmt.Sprintf("$%d", len(args))
		default:
			// ? placeholders bind one argument per occurrence,
			// in order of appearance
			args = append(args, value)
			placeholders[name] = "?"
		}
	}

	statement, err := b.tmpl.Render(placeholders, nil)
	if err != nil {
		return nil, err
	}

	return &StatementQuery{
		statement: statement,
		args:      args,
		cacheKey:  buildCacheKey(statement, args),
	}, nil
}

// buildCacheKey derives a deterministic key from the statement and its
// bound values
func buildCacheKey(statement string, args []interface{}) string {
	var b strings.Builder
	b.WriteString(statement)
	for _, arg := range args {
		b.WriteString("|")
		fmt.Fprintf(&b, "%v", arg)
	}
	return b.String()
}
