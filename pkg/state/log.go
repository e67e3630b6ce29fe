// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/google/uuid"
)

// Operation names one of the entries recorded in the log table.
type Operation string

const (
	OpApply    Operation = "apply"
	OpRollback Operation = "rollback"
	OpMark     Operation = "mark"
	OpUnmark   Operation = "unmark"
)

// LogEntry is one row of the audit log.
type LogEntry struct {
	ID             string
	MigrationHash  string
	Operation      Operation
	Username       string
	Hostname       string
	CreatedAtEpoch int64
	Comment        string
}

// Log records an audit entry for hash. Username and hostname are best
// effort: a sandboxed or minimal environment may not expose either, and a
// failure to resolve them must never block the migration it's describing.
func (s *State) Log(ctx context.Context, hash string, op Operation, comment string) error {
	entry := LogEntry{
		ID:             uuid.NewString(),
		MigrationHash:  hash,
		Operation:      op,
		Username:       currentUsername(),
		Hostname:       currentHostname(),
		CreatedAtEpoch: time.Now().Unix(),
		Comment:        comment,
	}

	q := fmt.Sprintf(`INSERT INTO %s
		(id, migration_hash, operation, username, hostname, created_at_epoch, comment)
		VALUES (:id, :hash, :operation, :username, :hostname, :created_at, :comment)`,
		s.Backend.QuoteIdentifier(s.Tables.Log))

	_, err := s.Backend.Exec(ctx, q, map[string]any{
		"id":         entry.ID,
		"hash":       entry.MigrationHash,
		"operation":  string(entry.Operation),
		"username":   entry.Username,
		"hostname":   entry.Hostname,
		"created_at": entry.CreatedAtEpoch,
		"comment":    entry.Comment,
	})
	return err
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

func currentHostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "unknown"
}
