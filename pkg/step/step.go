// SPDX-License-Identifier: Apache-2.0

package step

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
)

// Step is the unit the engine drives: something with an Apply half and a
// Rollback half, run against a live Backend. force, when true, tells the
// step to proceed past an error it would otherwise have propagated — used
// when an operator explicitly asks to continue despite failures.
type Step interface {
	Apply(ctx context.Context, backend *db.Backend, force bool) error
	Rollback(ctx context.Context, backend *db.Backend, force bool) error
}

var nextID = make(chan int, 1)

func init() {
	nextID <- 1
}

// newID hands out monotonically increasing step identifiers, used only for
// log and diagnostic output — ids are never persisted.
func newID() int {
	id := <-nextID
	nextID <- id + 1
	return id
}

// Atomic is the smallest Step: a single directive to apply, and an
// optional directive to undo it. A step with no rollback directive treats
// Rollback as a no-op, matching migrations whose Down half is absent.
type Atomic struct {
	ID       int
	apply    Directive
	rollback Directive
}

// NewAtomic builds an Atomic step. rollback may be nil.
func NewAtomic(apply Directive, rollback Directive) *Atomic {
	return &Atomic{ID: newID(), apply: apply, rollback: rollback}
}

func (a *Atomic) Apply(ctx context.Context, backend *db.Backend, force bool) error {
	return runDirective(ctx, backend, a.apply, force)
}

func (a *Atomic) Rollback(ctx context.Context, backend *db.Backend, force bool) error {
	if a.rollback == nil {
		return nil
	}
	return runDirective(ctx, backend, a.rollback, force)
}

func runDirective(ctx context.Context, backend *db.Backend, d Directive, force bool) error {
	var err error
	switch v := d.(type) {
	case SQL:
		rows, execErr := backend.Execute(ctx, string(v), nil)
		if execErr == nil {
			err = dumpRows(backend.Output(), rows)
		} else {
			err = execErr
		}
	case ConnFunc:
		err = v(ctx, backend.Conn())
	default:
		return fmt.Errorf("step: unknown directive type %T", d)
	}

	if err != nil && force {
		return nil
	}
	return err
}

// dumpRows renders a statement's result set as a simple tabulated table,
// matching MigrationStep._execute's column-width dump: a header row, a
// "-"-filled rule, one line per result row, and a plural-aware footer
// ("(N row)"/"(N rows)"). Statements with no result metadata (most DDL and
// DML) leave no columns and produce no output. rows is always closed.
func dumpRows(w io.Writer, rows *sql.Rows) error {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return rows.Err()
	}

	var result [][]string
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}

		row := make([]string, len(columns))
		for i, v := range raw {
			row[i] = stringifyCell(v)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	sizes := make([]int, len(columns))
	for i, c := range columns {
		sizes[i] = len(c)
	}
	for _, row := range result {
		for i, v := range row {
			if len(v) > sizes[i] {
				sizes[i] = len(v)
			}
		}
	}

	segments := make([]string, len(sizes))
	for i, size := range sizes {
		segments[i] = fmt.Sprintf(" %%-%ds ", size)
	}
	format := strings.Join(segments, "|") + "\n"

	writeRow := func(values []string) {
		args := make([]any, len(values))
		for i, v := range values {
			args[i] = v
		}
		fmt.Fprintf(w, format, args...)
	}

	writeRow(columns)

	rules := make([]string, len(sizes))
	for i, size := range sizes {
		rules[i] = strings.Repeat("-", size+2)
	}
	fmt.Fprintln(w, strings.Join(rules, "+"))

	for _, row := range result {
		writeRow(row)
	}

	fmt.Fprintln(w, plural(len(result), "(%d row)", "(%d rows)"))
	return nil
}

func stringifyCell(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// plural picks singular or plural based on n, mirroring the source engine's
// plural(n, "(%d row)", "(%d rows)") helper.
func plural(n int, singular, many string) string {
	if n == 1 {
		return fmt.Sprintf(singular, n)
	}
	return fmt.Sprintf(many, n)
}

// TransactionalWrapper runs its child inside a transaction (or savepoint,
// if already nested). If the child returns an error, the transaction is
// rolled back; the ErrorPolicy (or force) then decides whether that error
// is swallowed or returned.
type TransactionalWrapper struct {
	Child  Step
	Policy ErrorPolicy
}

func (w *TransactionalWrapper) Apply(ctx context.Context, backend *db.Backend, force bool) error {
	return w.run(ctx, backend, Apply, force)
}

func (w *TransactionalWrapper) Rollback(ctx context.Context, backend *db.Backend, force bool) error {
	return w.run(ctx, backend, Rollback, force)
}

func (w *TransactionalWrapper) run(ctx context.Context, backend *db.Backend, dir Direction, force bool) error {
	tx, err := backend.Transaction(ctx)
	if err != nil {
		return err
	}

	var stepErr error
	if dir == Apply {
		stepErr = w.Child.Apply(ctx, backend, force)
	} else {
		stepErr = w.Child.Rollback(ctx, backend, force)
	}

	if stepErr != nil {
		tx.MarkRollback()
		if closeErr := tx.Close(ctx); closeErr != nil {
			return closeErr
		}
		if w.Policy.matches(dir) || force {
			return nil
		}
		return stepErr
	}

	return tx.Close(ctx)
}

// NonTransactionalWrapper runs its child outside any transaction — used for
// DDL that a dialect can't run transactionally, or migrations explicitly
// marked not to use transactions.
type NonTransactionalWrapper struct {
	Child  Step
	Policy ErrorPolicy
}

func (w *NonTransactionalWrapper) Apply(ctx context.Context, backend *db.Backend, force bool) error {
	err := w.Child.Apply(ctx, backend, force)
	if err != nil && (w.Policy.matches(Apply) || force) {
		return nil
	}
	return err
}

func (w *NonTransactionalWrapper) Rollback(ctx context.Context, backend *db.Backend, force bool) error {
	err := w.Child.Rollback(ctx, backend, force)
	if err != nil && (w.Policy.matches(Rollback) || force) {
		return nil
	}
	return err
}

// Group composes child steps, applying them in order. Its Rollback
// re-invokes Apply on each child in forward order rather than calling
// Rollback in reverse order. This mirrors the source engine's Group
// exactly: a grouped step's "undo" is authored as the forward half of a
// second, rollback-flavored group, not as true reverse execution.
type Group struct {
	Children []Step
}

func (g *Group) Apply(ctx context.Context, backend *db.Backend, force bool) error {
	for _, child := range g.Children {
		if err := child.Apply(ctx, backend, force); err != nil {
			return err
		}
	}
	return nil
}

func (g *Group) Rollback(ctx context.Context, backend *db.Backend, force bool) error {
	for _, child := range g.Children {
		if err := child.Apply(ctx, backend, force); err != nil {
			return err
		}
	}
	return nil
}
