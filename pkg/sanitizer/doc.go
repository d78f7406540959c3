// Package sanitizer normalizes member-supplied text before validation and
// storage.
//
// All functions are idempotent and never return errors; unusable input
// collapses to an empty string.
package sanitizer
