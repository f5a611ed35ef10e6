package elements

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/kashacker/satellite-tracker-orbitx/internal/cache"
	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

// Persister is a second-level element-set cache that outlives the process.
// Load reports ok=false with a nil error when nothing is stored for the key.
type Persister interface {
	Load(ctx context.Context, catalogNumber int) (entry cache.Entry[tle.ElementSet], ok bool, err error)
	Save(ctx context.Context, catalogNumber int, entry cache.Entry[tle.ElementSet]) error
	Name() string
	Close() error
}

func encodeEntry(e cache.Entry[tle.ElementSet]) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, fmt.Errorf("encoding element set: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEntry(b []byte) (cache.Entry[tle.ElementSet], error) {
	var e cache.Entry[tle.ElementSet]
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&e); err != nil {
		return cache.Entry[tle.ElementSet]{}, fmt.Errorf("decoding element set: %w", err)
	}
	return e, nil
}
