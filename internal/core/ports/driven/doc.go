// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - RecordStore: Read access to folder metadata and extraction records
//   - RecordWriter: Populates a record store (import only)
//   - LLMService: Chat model used as the classifier or extractor oracle
//   - PromptStore: System prompts for each pipeline stage
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
