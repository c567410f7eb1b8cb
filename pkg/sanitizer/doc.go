// Package sanitizer normalizes free-form visitor and operator input before it
// is validated and stored.
//
// All functions are idempotent. They never fail: input that cannot be
// normalized is returned trimmed but otherwise unchanged, so the validator
// downstream decides whether it is acceptable.
//
// Normalization includes:
//   - Names and titles: collapse whitespace, trim
//   - Emails: trim and lowercase
//   - Long text (descriptions, notes): trim, unify line endings
//   - Phone numbers: E.164 (+[country][number]) when the number is possible
package sanitizer
