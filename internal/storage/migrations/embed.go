package migrations

import "embed"

// FS holds the versioned SQL migration scripts.
//
//go:embed scripts/*.sql
var FS embed.FS
