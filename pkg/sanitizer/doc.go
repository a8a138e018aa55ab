// Package sanitizer cleans agent-entered booking fields before validation.
//
// Every function is idempotent and never fails: input it cannot make sense
// of comes back empty or unchanged, and the validator reports it.
//
//   - phone numbers become E.164 for the configured region (display only)
//   - free text has its whitespace collapsed and trimmed
//   - amounts lose grouping separators and currency symbols ("₦15,000" -> "15000")
package sanitizer
