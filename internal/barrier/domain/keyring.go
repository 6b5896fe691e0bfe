package domain

import (
	"sync"

	"github.com/google/uuid"
)

// layerVersion is the composite index key for version lookups.
type layerVersion struct {
	layer   Layer
	version uint
}

// Keyring holds every unwrapped key record in memory, indexed by record ID
// and by (layer, version), with one active record per layer.
//
// The barrier unwraps the full hierarchy during initialization and serves all
// cryptographic operations from this table; storage is never consulted on the
// encrypt/decrypt hot path. Lookups take the read lock so concurrent Encrypt
// and Decrypt calls do not serialize each other; Add takes the write lock and
// is only called during initialization, rotation, and rewrap.
type Keyring struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]*KeyRecord
	byVersion map[layerVersion]*KeyRecord
	active    map[Layer]uuid.UUID
}

// NewKeyring creates an empty Keyring.
func NewKeyring() *Keyring {
	return &Keyring{
		byID:      make(map[uuid.UUID]*KeyRecord),
		byVersion: make(map[layerVersion]*KeyRecord),
		active:    make(map[Layer]uuid.UUID),
	}
}

// Add inserts an unwrapped key record and promotes it to active for its layer
// when it is the first record seen for that layer or carries the highest
// version. Records may arrive in any order during initialization; after a
// rotation the new version always wins the active slot.
func (k *Keyring) Add(record *KeyRecord) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.byID[record.ID] = record
	k.byVersion[layerVersion{layer: record.Layer, version: record.Version}] = record

	activeID, ok := k.active[record.Layer]
	if !ok || k.byID[activeID].Version <= record.Version {
		k.active[record.Layer] = record.ID
	}
}

// Get retrieves a key record by its ID.
func (k *Keyring) Get(id uuid.UUID) (*KeyRecord, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	record, ok := k.byID[id]
	return record, ok
}

// GetByVersion retrieves a key record by layer and version.
func (k *Keyring) GetByVersion(layer Layer, version uint) (*KeyRecord, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	record, ok := k.byVersion[layerVersion{layer: layer, version: version}]
	return record, ok
}

// Active returns the active (highest version) key record for a layer.
func (k *Keyring) Active(layer Layer) (*KeyRecord, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	id, ok := k.active[layer]
	if !ok {
		return nil, false
	}

	record, ok := k.byID[id]
	return record, ok
}

// Len returns the number of key records held by the keyring.
func (k *Keyring) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return len(k.byID)
}

// Close zeroes all clear key material and empties the keyring.
// It is safe to call more than once.
func (k *Keyring) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, record := range k.byID {
		Zero(record.Key)
	}
	k.byID = make(map[uuid.UUID]*KeyRecord)
	k.byVersion = make(map[layerVersion]*KeyRecord)
	k.active = make(map[Layer]uuid.UUID)
}
