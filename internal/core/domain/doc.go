// Package domain defines the core business entities for zoomin.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Folder: A summarised group of files in the record store
//   - Extraction: A per-file extraction record (document, image or spreadsheet)
//   - ContentItems: The addressable content of an extraction
//   - ContentPointer: A (file, type, index) address produced by retrieval
//   - ResolvedResult: A pointer materialised back into content
//   - SearchEnvelope: The result of one zoom-in search
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
