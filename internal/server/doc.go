// Package server implements the MCP (Model Context Protocol) server for bowl
// verification.
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - bowl_verify: Verify one photo against its receipt
//   - bowl_verify_batch: Verify several photos, isolating failures
//   - bowl_segment: Locate receipt and bowl only
//   - ingredient_registry: List known ingredients
//
// # Caching
//
// Decoded photos are cached by path. Verification reports are cached by path,
// modification time and size for Options.ReportTTL, so asking about an
// unchanged photo twice returns the same run ID without running OCR again.
// A cached answer carries "cached": true.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A photo in which neither the receipt nor the bowl yields an ingredient is
// not a tool failure: bowl_verify returns the report with a null result and
// an "error" field.
//
// # Usage
//
//	p, err := pipeline.FromConfig(cfg, log)
//	if err != nil {
//	    return err
//	}
//	srv := server.New(p, server.Options{Logger: log})
//	if err := srv.Run(ctx); err != nil {
//	    log.Error("server stopped", "error", err)
//	}
package server
