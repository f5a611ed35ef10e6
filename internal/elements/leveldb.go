package elements

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/kashacker/satellite-tracker-orbitx/internal/cache"
	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

const levelDBKeyPrefix = "e:"

// LevelDBPersister keeps element sets in a local LevelDB so a restarted
// process does not refetch everything it served before.
type LevelDBPersister struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if needed) the database at path.
func OpenLevelDB(path string) (*LevelDBPersister, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb %s: %w", path, err)
	}
	return &LevelDBPersister{db: db}, nil
}

func (p *LevelDBPersister) Name() string { return "leveldb" }

func (p *LevelDBPersister) Load(_ context.Context, catalogNumber int) (cache.Entry[tle.ElementSet], bool, error) {
	b, err := p.db.Get(levelDBKey(catalogNumber), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return cache.Entry[tle.ElementSet]{}, false, nil
	}
	if err != nil {
		return cache.Entry[tle.ElementSet]{}, false, err
	}
	e, err := decodeEntry(b)
	if err != nil {
		return cache.Entry[tle.ElementSet]{}, false, err
	}
	return e, true, nil
}

func (p *LevelDBPersister) Save(_ context.Context, catalogNumber int, e cache.Entry[tle.ElementSet]) error {
	b, err := encodeEntry(e)
	if err != nil {
		return err
	}
	return p.db.Put(levelDBKey(catalogNumber), b, nil)
}

// Len counts stored element sets.
func (p *LevelDBPersister) Len() (int, error) {
	it := p.db.NewIterator(util.BytesPrefix([]byte(levelDBKeyPrefix)), nil)
	defer it.Release()

	n := 0
	for it.Next() {
		n++
	}
	return n, it.Error()
}

func (p *LevelDBPersister) Close() error {
	return p.db.Close()
}

func levelDBKey(catalogNumber int) []byte {
	return []byte(levelDBKeyPrefix + strconv.Itoa(catalogNumber))
}
