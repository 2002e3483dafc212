// Package storage defines the Engine contract shared by folio's storage
// backends and the key rules they all follow.
//
// Backends live in sub-packages:
//
//	diskv   one file per key (default), cross-process flock
//	pebble  LSM tree, fsync policy and group commit
//	bolt    single bbolt file, one bucket
//	sqlite  single SQLite file in WAL mode
//	memory  process-local map, used as the test fake
//
// Keys are normalized to NFC and must be usable as one file name:
//
//	k, err := storage.NormalizeKey("café")
//	_ = storage.FileName(k) // "café.pt"
package storage
