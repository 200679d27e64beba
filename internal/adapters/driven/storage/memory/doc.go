// Package memory provides in-memory store implementations.
// Used as test doubles and for ephemeral runs without a database file.
package memory
