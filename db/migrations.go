package db

import "embed"

// Migrations holds the golang-migrate files for each supported driver under
// pg/ and sqlite/.
//
//go:embed pg/*.sql sqlite/*.sql
var Migrations embed.FS
