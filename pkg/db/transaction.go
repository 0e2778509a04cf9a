package db

import "context"

// Transaction executes fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// If fn panics, the transaction is rolled back and the panic is re-raised.
// If fn succeeds, the transaction is committed.
//
// Calling Transaction on a handle that is already inside a transaction runs
// fn inline on the same transaction; savepoints are not used.
func (c *Conn) Transaction(ctx context.Context, fn func(tx *Conn) error) error {
	if c.tx != nil {
		return fn(c)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: "begin", Err: err}
	}
	txConn := &Conn{db: c.db, tx: tx, name: c.name, dialect: c.dialect}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txConn); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return &Error{Op: "commit", Err: err}
	}
	return nil
}

// WithTx runs fn in a transaction on conn.
func WithTx(ctx context.Context, conn *Conn, fn func(tx *Conn) error) error {
	return conn.Transaction(ctx, fn)
}
