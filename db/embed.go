// Package db provides embedded database schema and seed files.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables. It is
// idempotent and applied on every start.
//
//go:embed migrations/001_schema.sql
var Schema string

// Foods is the default master food list used by the seed tool.
//
//go:embed seed/foods.json
var Foods []byte
