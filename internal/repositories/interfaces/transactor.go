package interfaces

import "context"

// Transactor runs fn atomically. Repository calls made with the context
// passed to fn take part in the transaction; when fn returns an error
// nothing it wrote is kept.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
