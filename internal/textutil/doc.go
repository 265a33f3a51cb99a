// Package textutil normalizes recognizer text output: whitespace collapsing
// for noisy OCR observations, title casing for name fields, and canonical
// casing for coded fields.
package textutil
