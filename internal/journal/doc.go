// Package journal persists finished scan session records to SQLite for the
// history command. The orchestration core never writes here; the CLI layer
// appends one record per completed session.
package journal
