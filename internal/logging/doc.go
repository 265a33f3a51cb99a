// Package logging builds the slog loggers used across idlens and defines the
// standardized attribute keys shared by every component. Console output is a
// compact single-line format; JSON output is intended for log collection.
package logging
