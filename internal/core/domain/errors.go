package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested record or folder does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedProvider indicates an unknown oracle provider.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrStoreUnavailable indicates the record store is not configured.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// Oracle Errors.

	// ErrOracleNotConfigured indicates missing oracle credentials or endpoint.
	// A search never starts without a configured oracle.
	ErrOracleNotConfigured = errors.New("oracle not configured")

	// ErrOracleTransport indicates the oracle request failed or returned a
	// non-success status. It aborts the current search.
	ErrOracleTransport = errors.New("oracle transport error")

	// ErrOracleMalformed indicates the oracle output could not be parsed as JSON,
	// neither raw nor from a fenced code block.
	ErrOracleMalformed = errors.New("oracle returned malformed output")

	// Record Errors.

	// ErrInvalidExtraction indicates an extraction blob is not valid JSON
	// or does not decode into a known variant.
	ErrInvalidExtraction = errors.New("invalid extraction record")

	// ErrInvalidKey indicates a store key does not follow the extraction naming convention.
	ErrInvalidKey = errors.New("invalid record key")
)
