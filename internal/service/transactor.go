// Package service holds the business logic behind the HTTP handlers and CLIs.
package service

import "context"

// Transactor runs fn as one unit of work. Repositories invoked with the ctx
// handed to fn take part in that unit.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NonAtomic runs each step on its own; a failure part way leaves earlier
// steps applied.
type NonAtomic struct{}

func (NonAtomic) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
