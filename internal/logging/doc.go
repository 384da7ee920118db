// Package logging assembles structured slog loggers and formatting helpers
// used across wikiconfig.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so engine operations tag their lines
// with the operation name and save identifier. NewNop returns a logger that
// discards everything, for tests and for callers that pass no logger.
package logging
