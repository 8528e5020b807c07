// Package logging provides structured logging utilities for the zoomdrive application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Consistent attribute naming across the codebase
//   - Token sanitization for safe credential logging
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "zoom.listMeetings")
//	logger.Info("listing meetings",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Debug("token acquired",
//	    "token", logging.SanitizeToken(token))
//
// # Security Considerations
//
// Bearer tokens and download URLs carry credentials; only SanitizeToken output
// and low-cardinality fields (meeting id, folder name) are meant to be logged.
package logging
