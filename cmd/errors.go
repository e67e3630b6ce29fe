// SPDX-License-Identifier: Apache-2.0

package cmd

import "errors"

var errNoDatabaseURL = errors.New("no database connection string given, pass --database or set YOYO_DATABASE_URL")

var errUnknownScheme = errors.New("database connection string must start with sqlite://, postgres://, mysql://, oracle://, or odbc://")
