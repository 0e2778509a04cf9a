// Package id generates identifiers encoded in Crockford base32.
//
// NewULID returns time-sortable 26-character IDs used for sessions, request
// IDs and uploaded object keys. Random returns short random codes such as
// the suffix of payment references.
package id
