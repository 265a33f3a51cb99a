// Package quality aggregates per-frame capture quality into a smoothed,
// hysteresis-guarded advisory verdict. The verdict recommends a recognition
// strategy but never drives transitions itself.
package quality
