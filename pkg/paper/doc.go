// Package paper is a typed book store over pluggable storage engines.
//
// Init must run once per process before books can be opened. Each value
// is stored with its Go type name, so reads with the wrong type fail with
// ErrTypeMismatch instead of decoding garbage. Values are encoded as JSON:
// fields removed from a struct since a write are ignored on read, and new
// fields read as their zero value.
//
//	paper.Init(paper.Platform{FilesDir: dir})
//	book, err := paper.OpenBook("settings")
//	if err != nil { /* handle */ }
//	_ = book.Write("theme", Theme{Dark: true})
//	theme, err := paper.Get[Theme](book, "theme")
package paper
