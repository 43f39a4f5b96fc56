// Package mcp provides an MCP (Model Context Protocol) server adapter for zoomin.
// It lets AI assistants run zoom-in searches and browse the record store.
package mcp

import "errors"

var (
	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

	// ErrInvalidArgument is returned when a prompt argument is missing or malformed.
	ErrInvalidArgument = errors.New("mcp: invalid argument")
)
