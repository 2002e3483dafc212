package paper

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rzbill/folio/internal/codec"
)

var (
	regMu    sync.RWMutex
	registry = map[string]reflect.Type{}
)

func init() {
	Register(
		false, "", []byte(nil),
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0),
		[]string(nil), []int(nil), []int64(nil), []float64(nil), []bool(nil), []any(nil),
		map[string]any(nil), map[string]string(nil), map[string]int(nil), map[string]float64(nil),
	)
}

// Register makes the types of values known to Book.Read. Pointer values
// register their element type.
func Register(values ...any) {
	regMu.Lock()
	defer regMu.Unlock()
	for _, v := range values {
		t := reflect.TypeOf(v)
		if t == nil {
			continue
		}
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		registry[codec.TypeName(t)] = t
	}
}

func lookup(name string) (reflect.Type, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}
