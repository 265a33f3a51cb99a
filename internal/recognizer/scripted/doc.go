// Package scripted provides recognizers driven by a TOML scenario file.
// Scenarios script frame quality, per-attempt barcode outcomes, and the OCR
// fallback result, which makes whole-session behavior reproducible from the
// command line and in end-to-end tests.
package scripted
