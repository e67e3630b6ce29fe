// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"fmt"
	"os"
	"time"
)

// LockTimeoutError reports that the advisory lock could not be acquired
// before the caller's timeout elapsed.
type LockTimeoutError struct {
	Timeout time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("state: timed out after %s waiting for migration lock", e.Timeout)
}

// Lock acquires the advisory lock, blocking (polling, since the lock is a
// plain table row rather than a backend-native advisory lock primitive)
// until it is free or timeout elapses. Acquisition is reentrant: a second
// Lock call from the same process while the first is still held succeeds
// immediately and Release only actually drops the row once the matching
// number of Release calls have been made.
//
// poll_interval is min(500ms, timeout), mirroring the source engine.
func (s *State) Lock(ctx context.Context, timeout time.Duration) (func(context.Context) error, error) {
	if s.Backend.IsLocked() {
		s.lockDepth++
		return s.release, nil
	}

	pid := os.Getpid()
	pollInterval := 500 * time.Millisecond
	if timeout < pollInterval {
		pollInterval = timeout
	}

	deadline := time.Now().Add(timeout)
	for {
		acquired, err := s.tryAcquire(ctx, pid)
		if err != nil {
			return nil, err
		}
		if acquired {
			s.Backend.SetLocked(true)
			s.lockDepth = 1
			return s.release, nil
		}

		if time.Now().After(deadline) {
			return nil, &LockTimeoutError{Timeout: timeout}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// tryAcquire attempts to claim the lock row with a single INSERT. The
// locked column's primary-key default of 1 guarantees collision with any
// row already present, so the INSERT itself is the mutual-exclusion check:
// there is no preceding SELECT to race against a concurrent process's
// INSERT between check and act.
func (s *State) tryAcquire(ctx context.Context, pid int) (bool, error) {
	tx, err := s.Backend.Transaction(ctx)
	if err != nil {
		return false, err
	}

	insert := fmt.Sprintf("INSERT INTO %s (locked, pid, ctime) VALUES (1, :pid, :ctime)",
		s.Backend.QuoteIdentifier(s.Tables.Lock))
	if _, err := s.Backend.Exec(ctx, insert, map[string]any{"pid": pid, "ctime": time.Now().Unix()}); err != nil {
		tx.MarkRollback()
		_ = tx.Close(ctx)
		return false, nil
	}

	if err := tx.Close(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *State) release(ctx context.Context) error {
	s.lockDepth--
	if s.lockDepth > 0 {
		return nil
	}

	q := fmt.Sprintf("DELETE FROM %s WHERE pid = :pid",
		s.Backend.QuoteIdentifier(s.Tables.Lock))
	_, err := s.Backend.Exec(ctx, q, map[string]any{"pid": os.Getpid()})
	s.Backend.SetLocked(false)
	return err
}

// BreakLock unconditionally clears the lock table, regardless of which
// process holds it.
func (s *State) BreakLock(ctx context.Context) error {
	q := fmt.Sprintf("DELETE FROM %s", s.Backend.QuoteIdentifier(s.Tables.Lock))
	_, err := s.Backend.Exec(ctx, q, nil)
	s.Backend.SetLocked(false)
	s.lockDepth = 0
	return err
}
