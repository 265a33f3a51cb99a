// Package recognizer declares the black-box contracts the scan session
// depends on: the barcode decoder, the optical text recognizer, and the
// field parser. The decoding algorithms themselves live behind these
// interfaces and are out of the orchestrator's scope.
package recognizer
