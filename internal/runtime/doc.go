// Package runtime wires config, logging and the paper store into a single
// process and hands out shared folio book handles.
//
// Example:
//
//	rt, err := runtime.Open(runtime.Options{Config: config.Default()})
//	if err != nil { /* handle */ }
//	defer rt.Close()
//	book, _ := rt.Book("orders")
//	_ = book.Write("o-1", order).Await(ctx)
package runtime
