package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemStoreGetSetDelete(t *testing.T) {
	db := MemStore()

	k, v := []byte("settled"), []byte{1}

	assert.Nil(t, db.Get(k))
	assert.False(t, db.Has(k))

	db.Set(k, v)
	assert.Equal(t, v, db.Get(k))
	assert.True(t, db.Has(k))

	db.Delete(k)
	assert.Nil(t, db.Get(k))
	assert.False(t, db.Has(k))
}

func TestCacheWrapDiscard(t *testing.T) {
	db := MemStore()
	db.Set([]byte("a"), []byte{1})

	cache := db.CacheWrap()
	cache.Set([]byte("a"), []byte{2})
	cache.Set([]byte("b"), []byte{3})
	cache.Delete([]byte("a"))

	// The overlay sees its own writes.
	assert.Nil(t, cache.Get([]byte("a")))
	assert.Equal(t, []byte{3}, cache.Get([]byte("b")))

	cache.Discard()

	// The backing store was never touched.
	assert.Equal(t, []byte{1}, db.Get([]byte("a")))
	assert.Nil(t, db.Get([]byte("b")))
}

func TestCacheWrapWrite(t *testing.T) {
	db := MemStore()
	db.Set([]byte("a"), []byte{1})

	cache := db.CacheWrap()
	cache.Set([]byte("b"), []byte{2})
	cache.Delete([]byte("a"))
	cache.Write()

	assert.Nil(t, db.Get([]byte("a")))
	assert.Equal(t, []byte{2}, db.Get([]byte("b")))
}

func TestCacheWrapNested(t *testing.T) {
	db := MemStore()

	outer := db.CacheWrap()
	outer.Set([]byte("a"), []byte{1})

	inner := outer.CacheWrap()
	inner.Set([]byte("b"), []byte{2})

	// Reads fall through all layers.
	assert.Equal(t, []byte{1}, inner.Get([]byte("a")))

	inner.Write()
	assert.Equal(t, []byte{2}, outer.Get([]byte("b")))
	assert.Nil(t, db.Get([]byte("b")))

	outer.Write()
	assert.Equal(t, []byte{1}, db.Get([]byte("a")))
	assert.Equal(t, []byte{2}, db.Get([]byte("b")))
}

func TestNilKeyPanics(t *testing.T) {
	db := MemStore()
	assert.Panics(t, func() { db.Get(nil) })
	assert.Panics(t, func() { db.Set(nil, []byte{1}) })
}
