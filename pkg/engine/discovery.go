// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/logger"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/migration"
)

// Open scans sourceDir for migrations, resolving any .go-migration
// placeholders against registry (which may be nil if none are expected),
// and builds an Engine ready to drive them against backend.
func Open(backend *db.Backend, sourceDir string, registry *migration.Registry, log logger.Logger) (*Engine, error) {
	collection, err := migration.Load(sourceDir, registry)
	if err != nil {
		return nil, err
	}
	return New(backend, collection, log)
}
