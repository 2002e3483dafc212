// Package codec frames stored values. A record carries the Go type name
// of the value next to its JSON payload so a read can tell a value that
// belongs to another type from a corrupt file.
//
// Record encoding: varint headerLen | header | payload | crc32c(header|payload)
// where header is the type name and payload is the JSON document.
package codec

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"reflect"
)

var (
	// ErrCorrupt is returned when a record fails framing or checksum checks.
	ErrCorrupt = errors.New("codec: corrupt record")
	// ErrNil is returned when encoding a nil value.
	ErrNil = errors.New("codec: nil value")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Record is a decoded, verified frame.
type Record struct {
	Type    string
	Payload []byte
}

// TypeName is the stable identifier written for values of t. Pointers are
// stripped so *T and T share a name.
func TypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// TypeOf is TypeName of v's dynamic type.
func TypeOf(v any) string { return TypeName(reflect.TypeOf(v)) }

// Encode frames v.
func Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, ErrNil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, ErrNil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", TypeOf(v), err)
	}
	return Frame(TypeOf(v), payload), nil
}

// Frame builds the raw record bytes.
func Frame(typ string, payload []byte) []byte {
	header := []byte(typ)
	out := make([]byte, 0, binary.MaxVarintLen64+len(header)+len(payload)+4)
	out = binary.AppendUvarint(out, uint64(len(header)))
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	return binary.BigEndian.AppendUint32(out, crc)
}

// Decode verifies and splits a record.
func Decode(b []byte) (Record, error) {
	if len(b) < 1+4 {
		return Record{}, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(b))
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || hlen > uint64(len(b)) || n+int(hlen)+4 > len(b) {
		return Record{}, fmt.Errorf("%w: bad header length", ErrCorrupt)
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return Record{}, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return Record{Type: string(header), Payload: append([]byte(nil), payload...)}, nil
}

// Into unmarshals the payload into target, which must be a non-nil pointer.
func (r Record) Into(target any) error {
	if err := json.Unmarshal(r.Payload, target); err != nil {
		return fmt.Errorf("codec: decode %s: %w", r.Type, err)
	}
	return nil
}
