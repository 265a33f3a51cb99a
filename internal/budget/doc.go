// Package budget estimates a scan session's memory and CPU footprint and
// flags advisory breaches of the configured limits. Hard timeout budgets are
// enforced elsewhere; this package only measures and reports.
package budget
