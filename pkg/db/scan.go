// SPDX-License-Identifier: Apache-2.0

package db

import "database/sql"

// ScanFirstValue scans the first row of rows into dest, assuming rows
// carries a single row with a single column.
func ScanFirstValue[T any](rows *sql.Rows, dest *T) error {
	if rows.Next() {
		if err := rows.Scan(dest); err != nil {
			return err
		}
	}
	return rows.Err()
}
