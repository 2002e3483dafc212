package paper

import (
	"fmt"

	"github.com/rzbill/folio/internal/storage"
	boltstore "github.com/rzbill/folio/internal/storage/bolt"
	diskvstore "github.com/rzbill/folio/internal/storage/diskv"
	memstore "github.com/rzbill/folio/internal/storage/memory"
	pebblestore "github.com/rzbill/folio/internal/storage/pebble"
	sqlitestore "github.com/rzbill/folio/internal/storage/sqlite"
)

const (
	EngineDiskv  = "diskv"
	EnginePebble = "pebble"
	EngineBolt   = "bolt"
	EngineSQLite = "sqlite"
	EngineMemory = "memory"
)

// Engines lists the accepted Platform.Engine values.
func Engines() []string {
	return []string{EngineDiskv, EnginePebble, EngineBolt, EngineSQLite, EngineMemory}
}

func openEngine(name string, opts storage.Options) (storage.Engine, error) {
	switch name {
	case EngineDiskv, "":
		return diskvstore.Open(opts)
	case EnginePebble:
		return pebblestore.Open(pebblestore.Options{Options: opts})
	case EngineBolt:
		return boltstore.Open(opts)
	case EngineSQLite:
		return sqlitestore.Open(opts)
	case EngineMemory:
		return memstore.New(opts.Location), nil
	default:
		return nil, fmt.Errorf("paper: unknown engine %q", name)
	}
}
