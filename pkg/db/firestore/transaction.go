package firestore

import (
	"context"
	"fmt"
	"time"

	"blackyoga/pkg/db"
	apperrors "blackyoga/pkg/errors"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type txKey struct{}

type firestoreTransactionManager struct {
	client *firestore.Client
}

func NewTransactionManager(client *firestore.Client) db.TransactionManager {
	return &firestoreTransactionManager{client: client}
}

// ExecuteTransaction runs fn inside RunTransaction. Firestore retries fn when
// a document it read was changed concurrently, so every read in fn must
// happen before its first write.
func (m *firestoreTransactionManager) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	err := m.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// TxFrom returns the transaction carried by ctx, or nil outside a transaction.
func TxFrom(ctx context.Context) *firestore.Transaction {
	tx, _ := ctx.Value(txKey{}).(*firestore.Transaction)
	return tx
}

// WithTimeout bounds ctx unless it carries a transaction, whose lifetime is
// owned by RunTransaction.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if TxFrom(ctx) != nil {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Get reads ref through the transaction in ctx when there is one.
func Get(ctx context.Context, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error) {
	if tx := TxFrom(ctx); tx != nil {
		return tx.Get(ref)
	}
	return ref.Get(ctx)
}

func Create(ctx context.Context, ref *firestore.DocumentRef, data any) error {
	if tx := TxFrom(ctx); tx != nil {
		return tx.Create(ref, data)
	}
	_, err := ref.Create(ctx, data)
	return err
}

func Set(ctx context.Context, ref *firestore.DocumentRef, data any) error {
	if tx := TxFrom(ctx); tx != nil {
		return tx.Set(ref, data)
	}
	_, err := ref.Set(ctx, data)
	return err
}

func Update(ctx context.Context, ref *firestore.DocumentRef, updates []firestore.Update) error {
	if tx := TxFrom(ctx); tx != nil {
		return tx.Update(ref, updates)
	}
	_, err := ref.Update(ctx, updates)
	return err
}

func Delete(ctx context.Context, ref *firestore.DocumentRef) error {
	if tx := TxFrom(ctx); tx != nil {
		return tx.Delete(ref)
	}
	_, err := ref.Delete(ctx)
	return err
}

// Documents runs q through the transaction in ctx when there is one.
func Documents(ctx context.Context, q firestore.Query) *firestore.DocumentIterator {
	if tx := TxFrom(ctx); tx != nil {
		return tx.Documents(q)
	}
	return q.Documents(ctx)
}

// Count runs a count aggregation over q.
func Count(ctx context.Context, q firestore.Query) (int64, error) {
	result, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	return CountValue(result["all"])
}

// CountValue converts an aggregation result entry into an int64.
func CountValue(v any) (int64, error) {
	pv, ok := v.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result type %T", v)
	}
	return pv.GetIntegerValue(), nil
}

func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func IsAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// Decode collects every document of it into T values, assigning IDs via setID.
func Decode[T any](it *firestore.DocumentIterator, setID func(*T, string)) ([]*T, error) {
	defer it.Stop()

	var out []*T
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var v T
		if err := snap.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
		}
		setID(&v, snap.Ref.ID)
		out = append(out, &v)
	}
	return out, nil
}

type pinger struct {
	client *firestore.Client
}

func NewPinger(client *firestore.Client) db.Pinger {
	return &pinger{client: client}
}

// Ping reads a single document id; a missing document still proves the
// backend is reachable.
func (p *pinger) Ping(ctx context.Context) error {
	_, err := p.client.Collection("users").Doc("_ping").Get(ctx)
	if err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}
