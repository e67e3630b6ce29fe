// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/logger"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

// runMigrationSteps runs a migration's steps in dir against backend.
//
// When the migration opted into transactions and the backend's DDL
// actually participates in them, the whole step list runs inside a single
// enclosing transaction — a failure anywhere rolls everything back for
// free. Applying runs the steps as one Group in order; rolling back runs
// each step's Rollback in reverse order (not Group.Rollback, which
// re-applies its children).
//
// Otherwise (the migration declared __transactional__ false, or the
// backend's DDL auto-commits regardless of any enclosing transaction) an
// enclosing transaction can't be trusted to undo what already ran, so
// steps run one at a time with their successes tracked; a failure triggers
// an explicit compensating rollback of whatever already succeeded, in
// reverse order, mirroring Migration.process_steps's executed_steps
// bookkeeping.
func runMigrationSteps(ctx context.Context, backend *db.Backend, steps []step.Step, dir step.Direction, useTransactions, hasTransactionalDDL, force bool, log logger.Logger, migrationID string) error {
	if useTransactions && hasTransactionalDDL {
		if dir == step.Apply {
			wrapped := &step.TransactionalWrapper{Child: &step.Group{Children: steps}, Policy: step.ErrorPolicyNone}
			return runDirection(wrapped, ctx, backend, dir, force)
		}
		tx, err := backend.Transaction(ctx)
		if err != nil {
			return err
		}
		for i := len(steps) - 1; i >= 0; i-- {
			if err := steps[i].Rollback(ctx, backend, force); err != nil {
				tx.MarkRollback()
				_ = tx.Close(ctx)
				return err
			}
		}
		return tx.Close(ctx)
	}
	return runWithCompensation(ctx, backend, steps, dir, force, log, migrationID)
}

func runDirection(s step.Step, ctx context.Context, backend *db.Backend, dir step.Direction, force bool) error {
	if dir == step.Apply {
		return s.Apply(ctx, backend, force)
	}
	return s.Rollback(ctx, backend, force)
}

// runWithCompensation runs steps one at a time in dir, tracking which ones
// succeed. If one fails, it undoes the already-succeeded steps in reverse
// order by running them in the opposite direction, then returns the
// original error regardless of whether compensation fully succeeded. A
// compensating step that itself fails is logged and stops any further
// compensation, exactly as the source engine's single try/except around
// its reversed(executed_steps) loop does.
func runWithCompensation(ctx context.Context, backend *db.Backend, steps []step.Step, dir step.Direction, force bool, log logger.Logger, migrationID string) error {
	ordered := steps
	if dir == step.Rollback {
		ordered = make([]step.Step, len(steps))
		for i, s := range steps {
			ordered[len(steps)-1-i] = s
		}
	}

	var executed []step.Step
	for _, s := range ordered {
		if err := runDirection(s, ctx, backend, dir, force); err != nil {
			compensate(ctx, backend, executed, dir, log, migrationID)
			return err
		}
		executed = append(executed, s)
	}
	return nil
}

// compensate undoes steps that already ran, in reverse order, by running
// each in the direction opposite to dir. Compensating calls are never
// forced: a compensating failure is logged and stops further compensation.
func compensate(ctx context.Context, backend *db.Backend, executed []step.Step, dir step.Direction, log logger.Logger, migrationID string) {
	for i := len(executed) - 1; i >= 0; i-- {
		var err error
		if dir == step.Apply {
			err = executed[i].Rollback(ctx, backend, false)
		} else {
			err = executed[i].Apply(ctx, backend, false)
		}
		if err != nil {
			log.Error("could not recover step while undoing a failed migration",
				"migration", migrationID, "error", err.Error())
			return
		}
	}
}
