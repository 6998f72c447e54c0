package ledger

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Supported backend names.
const (
	BackendBolt    = "bolt"
	BackendLevelDB = "leveldb"
	BackendPebble  = "pebble"
	BackendMemory  = "memory"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendBolt, BackendLevelDB, BackendPebble, BackendMemory}

// Open opens the named backend rooted at dataDir. A positive cacheSize wraps
// the backend in a CachedStore, which is only correct while the returned
// store is the ledger's sole writer.
func Open(backend, dataDir string, cacheSize int) (Store, error) {
	var (
		store Store
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendBolt:
		store, err = OpenBoltStore(filepath.Join(dataDir, "ledger.db"))
	case BackendLevelDB:
		store, err = OpenLevelStore(filepath.Join(dataDir, "ledger.ldb"))
	case BackendPebble:
		store, err = OpenPebbleStore(filepath.Join(dataDir, "ledger.pebble"))
	case BackendMemory:
		store = NewMemStore()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if err != nil {
		return nil, err
	}
	if cacheSize <= 0 {
		return store, nil
	}
	cached, err := NewCachedStore(store, cacheSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return cached, nil
}
