package libstate

import "context"

// APITable is a bound foreign library's function table.
// The binding layer stores it but never interprets it; the only call it
// makes is Close, which runs the library's own shutdown entry point.
type APITable interface {
	Close(ctx context.Context) error
}

// BuildIdentifier is optionally implemented by an APITable that knows the
// build or commit it was produced from.
type BuildIdentifier interface {
	BuildID() string
}
