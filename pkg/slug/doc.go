// Package slug turns titles into URL-safe identifiers.
//
// Latin diacritics are folded to ASCII with Unicode decomposition
// (golang.org/x/text), letters that do not decompose (ß, ø, ł, æ, ...) are
// transliterated, and every run of other characters becomes one separator:
//
//	slug.Make("Amélie")                        // "amelie"
//	slug.Make("Crouching Tiger, Hidden Dragon") // "crouching-tiger-hidden-dragon"
//	slug.Make("Das Boot", slug.Separator("_"))  // "das_boot"
//	slug.Make("Science Fiction", slug.MaxLength(10)) // "science"
//
// MaxLength never cuts a word in half unless the first word alone is too
// long. WithSuffix appends a random lowercase suffix, used to resolve slug
// collisions without a database round trip.
package slug
