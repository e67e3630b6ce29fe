// SPDX-License-Identifier: Apache-2.0

package db

import "context"

// TransactionManager scopes a BEGIN/COMMIT (or SAVEPOINT/RELEASE) pair. A
// Backend only ever has one real transaction open at a time; nested calls to
// Transaction automatically fall back to a savepoint, mirroring how the
// source backend chooses between connection.begin() and a savepoint
// depending on whether a transaction is already in progress.
type TransactionManager struct {
	backend    *Backend
	savepoint  string
	rollback   bool
	closed     bool
}

// Transaction opens a new transaction, or a savepoint if one is already
// open. Callers must call Close to commit (or roll back, if MarkRollback
// was called).
func (b *Backend) Transaction(ctx context.Context) (*TransactionManager, error) {
	tm := &TransactionManager{backend: b}

	if b.inTransaction {
		tm.savepoint = b.NextSavepointID()
		if err := b.Savepoint(ctx, tm.savepoint); err != nil {
			return nil, err
		}
		return tm, nil
	}

	if err := b.Begin(ctx); err != nil {
		return nil, err
	}
	return tm, nil
}

// MarkRollback records that Close should roll back rather than commit. It
// may be called at any point before Close; it never itself touches the
// database, so it is safe to call after an error that already broke the
// connection's transaction state.
func (tm *TransactionManager) MarkRollback() {
	tm.rollback = true
}

// Close commits or rolls back, depending on whether MarkRollback was
// called, and is a no-op if already closed.
func (tm *TransactionManager) Close(ctx context.Context) error {
	if tm.closed {
		return nil
	}
	tm.closed = true

	if tm.savepoint != "" {
		if tm.rollback {
			if err := tm.backend.SavepointRollback(ctx, tm.savepoint); err != nil {
				return err
			}
		}
		return tm.backend.SavepointRelease(ctx, tm.savepoint)
	}

	if tm.rollback {
		return tm.backend.Rollback(ctx)
	}
	return tm.backend.Commit(ctx)
}
