// Package datastore holds the persistence backends for ideas and
// subscriptions.
//
// Postgres is the production backend. Both idea.Store and
// subscription.Store are implemented by the same type, and
// Postgres.WithOwnerLock serialises quota checks per owner through a
// transaction-scoped advisory lock. The schema ships as embedded goose
// migrations (see Migrations).
//
// Memory is an in-process backend for development and tests. Unconfigured
// fails every call with ErrNotConfigured and is used when no database is
// set up. EventLog records processed webhook event IDs in Redis.
package datastore
