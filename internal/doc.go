// Package internal documents the attend server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, rendering, and routing
// - domain: business logic and domain models
// - storage: database access and repositories (pgx + Postgres)
// - jobs: background workers and queues
// - auth, config, email, metrics, sanitize: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
