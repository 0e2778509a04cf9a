// Package sanitizer cleans user-submitted text with bluemonday policies.
//
// StripHTML and PlainText remove every tag; they are used for review bodies,
// profile bios and other fields rendered as text. SanitizeHTML keeps a small
// formatting subset (paragraphs, emphasis, lists, code, quotes, nofollow
// links) for fields rendered as HTML.
package sanitizer
