// Package memory provides in-memory implementations of the record store
// and config store ports, used as fakes in tests.
package memory
