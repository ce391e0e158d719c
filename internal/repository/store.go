// Package repository implements tenant-scoped Mongo storage for sessions,
// modules, and the audit trail. Mutations are optimistic: every document
// carries a version, and writes are compare-then-write on (_id, version).
package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxnRunner executes a function inside a Mongo transaction. Used when one
// mutation must span the session and module collections.
type TxnRunner interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the database handle and implements TxnRunner.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore creates a Store on the named database.
func NewStore(client *mongo.Client, dbName string) *Store {
	return &Store{
		client: client,
		db:     client.Database(dbName),
	}
}

// InTransaction runs fn inside a causally-consistent Mongo transaction. The
// context passed to fn must be used for every operation inside it.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
