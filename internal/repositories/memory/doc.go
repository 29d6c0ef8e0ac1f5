// Package memory provides thread-safe, in-memory implementations of the
// repository interfaces. Each one enforces the same unique keys as the
// PostgreSQL and MongoDB schemas, so services behave identically against it.
// It backs the service and handler tests and can run the API without databases.
package memory
