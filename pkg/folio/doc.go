// Package folio is an asynchronous handle over a paper book with change
// observation.
//
// Operations return lazy values from package async; nothing touches disk
// until the value is awaited or subscribed. Writes are broadcast to
// observers of the same handle after the value is stored.
//
//	folio.Init(paper.Platform{FilesDir: dir})
//	book, err := folio.OpenBook("settings")
//	if err != nil { /* handle */ }
//
//	sub, _ := folio.Observe[Theme](book, "theme")
//	defer sub.Close()
//
//	if err := book.Write("theme", Theme{Dark: true}).Await(ctx); err != nil { /* handle */ }
//	theme := <-sub.C()
//
// Observe only delivers values of the requested type. ObserveUnsafe
// delivers every write to the key and checks the type when Get is called.
package folio
