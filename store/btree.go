package store

import (
	"bytes"

	"github.com/google/btree"
)

// btreeDegree is the branching factor used for all in-memory trees. The
// value follows the btree package recommendation for small working sets.
const btreeDegree = 2

// MemStore returns a simple in-memory implementation useful for tests and
// for any deployment that keeps settlement state purely in process. There
// is no persistence here.
func MemStore() CacheableKVStore {
	return &BTreeStore{bt: btree.New(btreeDegree)}
}

// BTreeStore is a KVStore backed by an in-memory btree.
type BTreeStore struct {
	bt *btree.BTree
}

var _ CacheableKVStore = (*BTreeStore)(nil)

// Get returns nil iff key doesn't exist. Panics on nil key.
func (s *BTreeStore) Get(key []byte) []byte {
	assertValidKey(key)
	if item := s.bt.Get(bkey(key)); item != nil {
		return item.(bvalue).value
	}
	return nil
}

// Has checks if a key exists. Panics on nil key.
func (s *BTreeStore) Has(key []byte) bool {
	assertValidKey(key)
	return s.bt.Has(bkey(key))
}

// Set sets the key. Panics on nil key.
func (s *BTreeStore) Set(key, value []byte) {
	assertValidKey(key)
	s.bt.ReplaceOrInsert(bvalue{key: key, value: value})
}

// Delete deletes the key. Panics on nil key.
func (s *BTreeStore) Delete(key []byte) {
	assertValidKey(key)
	s.bt.Delete(bkey(key))
}

// CacheWrap returns a BTreeCacheWrap that can be later written to this
// store, or rolled back.
func (s *BTreeStore) CacheWrap() KVCacheWrap {
	return newCacheWrap(s)
}

// BTreeCacheWrap places a btree overlay over any KVStore. All writes are
// buffered in the overlay until Write copies them to the backing store in a
// single pass. Discard drops the overlay, leaving the backing store exactly
// as it was.
type BTreeCacheWrap struct {
	bt   *btree.BTree
	back KVStore
}

var _ KVCacheWrap = (*BTreeCacheWrap)(nil)

func newCacheWrap(back KVStore) *BTreeCacheWrap {
	return &BTreeCacheWrap{
		bt:   btree.New(btreeDegree),
		back: back,
	}
}

// CacheWrap layers another overlay on top of this one.
// Don't change horses in mid-stream....
func (w *BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return newCacheWrap(w)
}

// Get returns the overlay value if the key was touched, otherwise reads
// through to the backing store. Panics on nil key.
func (w *BTreeCacheWrap) Get(key []byte) []byte {
	assertValidKey(key)
	if item := w.bt.Get(bkey(key)); item != nil {
		shadow := item.(bvalue)
		if shadow.deleted {
			return nil
		}
		return shadow.value
	}
	return w.back.Get(key)
}

// Has checks if a key exists. Panics on nil key.
func (w *BTreeCacheWrap) Has(key []byte) bool {
	assertValidKey(key)
	if item := w.bt.Get(bkey(key)); item != nil {
		return !item.(bvalue).deleted
	}
	return w.back.Has(key)
}

// Set writes to the overlay. Panics on nil key.
func (w *BTreeCacheWrap) Set(key, value []byte) {
	assertValidKey(key)
	w.bt.ReplaceOrInsert(bvalue{key: key, value: value})
}

// Delete marks the key deleted in the overlay. Panics on nil key.
func (w *BTreeCacheWrap) Delete(key []byte) {
	assertValidKey(key)
	w.bt.ReplaceOrInsert(bvalue{key: key, deleted: true})
}

// Write syncs with the underlying store and then cleans up.
func (w *BTreeCacheWrap) Write() {
	w.bt.Ascend(func(item btree.Item) bool {
		shadow := item.(bvalue)
		if shadow.deleted {
			w.back.Delete(shadow.key)
		} else {
			w.back.Set(shadow.key, shadow.value)
		}
		return true
	})
	w.Discard()
}

// Discard invalidates this CacheWrap and releases all data.
func (w *BTreeCacheWrap) Discard() {
	w.bt.Clear(false)
}

// bvalue is the btree item used for both real values and deletion shadows.
type bvalue struct {
	key     []byte
	value   []byte
	deleted bool
}

func (v bvalue) Less(than btree.Item) bool {
	return bytes.Compare(v.key, than.(bvalue).key) < 0
}

// bkey builds a lookup item for the given key.
func bkey(key []byte) bvalue {
	return bvalue{key: key}
}

func assertValidKey(key []byte) {
	if key == nil {
		panic("key is nil")
	}
}
