// Package txn runs paired writes as one unit.
//
// On a replica set the unit is a MongoDB multi-document transaction. On a
// standalone server, where transactions are rejected, callers fall back to a
// Compensator: each write registers its inverse, and the inverses replay in
// reverse order if a later write fails.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Server error codes that mean "transactions are unavailable here".
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation (standalone server)
	51:  true, // IllegalOperation on some server versions
	263: true, // OperationNotSupportedInTransaction
}

var notSupportedKeywords = []string{
	"transaction",
	"replica set",
	"session",
	"not supported",
	"illegal operation",
}

// IsNotSupported reports whether err indicates that the deployment cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return notSupportedCodes[cmdErr.Code]
	}
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range notSupportedKeywords {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}

// Run executes fn inside a transaction on client. The callback may be
// retried by the driver on transient errors, so it must be idempotent with
// respect to its own reads.
func Run(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// Compensator is a LIFO log of undo actions.
// The zero value is ready to use. It is not safe for concurrent use.
type Compensator struct {
	undo []step
}

type step struct {
	name string
	fn   func(ctx context.Context) error
}

// Add registers the inverse of a write that has just succeeded.
func (c *Compensator) Add(name string, undo func(ctx context.Context) error) {
	c.undo = append(c.undo, step{name: name, fn: undo})
}

// Len returns the number of pending undo actions.
func (c *Compensator) Len() int { return len(c.undo) }

// Rollback runs every registered undo in reverse order. It keeps going after
// a failed undo and returns all failures joined.
func (c *Compensator) Rollback(ctx context.Context) error {
	var errs []error
	for i := len(c.undo) - 1; i >= 0; i-- {
		s := c.undo[i]
		if err := s.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", s.name, err))
		}
	}
	c.undo = nil
	return errors.Join(errs...)
}

// Discard forgets all undo actions after the unit committed.
func (c *Compensator) Discard() { c.undo = nil }
