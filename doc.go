// Package authredis persists an authentication framework's domain objects —
// users, linked provider accounts, sessions, and email-verification tokens —
// into a Redis-compatible key/value store.
//
// Every entity lives as a JSON document under a primary key, with a small set
// of secondary-index keys emulating the lookups a relational store would do
// with indexed columns: an email → user-id pointer, and per-user sets of
// account and session primary keys. [Adapter] owns the key-naming scheme and
// the read/write/delete choreography that keeps primary records and their
// index pointers consistent.
//
// # Architecture boundaries
//
// authredis is a stateless façade over an injected redis.UniversalClient.
// It does not manage connections, pooling, TLS, or retries — that is the
// client's job — and it implements none of the framework's session, CSRF, or
// provider logic. It issues no background work: every method is a direct
// request/response round-trip.
//
// # Consistency contract
//
// Writes that span a primary record and its index keys are applied in a
// single MULTI/EXEC batch, so the store never observes a record without its
// pointers. There is no coordination between concurrent callers beyond that:
// read-modify-write operations (UpdateUser, UpdateSession) are
// last-writer-wins, and lookups that chase a pointer can race a concurrent
// delete. Callers needing stronger guarantees must serialize externally.
//
// Lookups signal "not found" with a nil result and a nil error; only
// transport and serialization failures produce errors.
package authredis
