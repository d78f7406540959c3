package db

import "context"

// TransactionFunc runs inside a transaction. Repository calls made with the
// ctx it receives join the transaction. The function may be re-run by
// backends that retry on contention, so it must not have side effects
// outside the store.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
