// Package pebblestore stores a book in a Pebble LSM tree. It carries the
// fsync policy (per-write sync, group commit, or none) and a metrics hook
// for read/write/commit observations.
//
// Items live under the "item/" prefix; Destroy issues one range tombstone.
//
//	e, err := pebblestore.Open(pebblestore.Options{
//	    Options: storage.Options{Location: "./data/folio", Fsync: storage.FsyncModeInterval},
//	})
//	if err != nil { /* handle */ }
//	defer e.Close()
//	_ = e.Put("k", []byte("v"))
package pebblestore
