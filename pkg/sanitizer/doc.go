// Package sanitizer normalizes caller-supplied guest and catalog fields
// before validation: whitespace collapsing for names and descriptions,
// lowercasing for emails, E.164 formatting for phone numbers.
package sanitizer
