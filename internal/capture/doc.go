// Package capture orchestrates a single document scan session: barcode
// recognition first, an OCR fallback when the barcode path cannot deliver,
// and a single normalized Result either way.
//
// The Controller composes the state machine, the timer manager, the quality
// processor, and the resource monitor. It is safe for one session at a time;
// Reset returns it to a fresh state for reuse.
package capture
