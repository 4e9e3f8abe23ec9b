// Package elementinfo stores fingerprints of UI elements reported by test
// runs, so a later run can find an element again when its locator breaks.
//
// Records are kept for a retention window after their last update; see the
// retention subpackage for the sweep that enforces it.
package elementinfo
