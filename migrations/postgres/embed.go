// Package migrations embebe los SQL de esquema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
