// Package cache keeps recently rendered documents keyed by a digest of
// their input.
package cache

import (
	"container/list"
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Key identifies one render input.
type Key [blake2b.Size256]byte

// KeyOf hashes the mode and source of a render. Extra strings, such as a
// digest of the renderer options, are length-prefixed so that ("ab", "c")
// and ("a", "bc") differ.
func KeyOf(display bool, latex string, extra ...string) Key {
	h, _ := blake2b.New256(nil)
	if display {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	var n []byte
	for _, s := range append([]string{latex}, extra...) {
		n = binary.AppendUvarint(n[:0], uint64(len(s)))
		h.Write(n)
		h.Write([]byte(s))
	}
	var k Key
	h.Sum(k[:0])
	return k
}

type entry struct {
	key Key
	val string
}

// Cache is a fixed size least recently used map, safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	size   int
	order  *list.List
	items  map[Key]*list.Element
	hits   int64
	misses int64
}

// New returns a cache holding at most size documents. Size zero or less
// returns nil, and a nil *Cache never stores anything.
func New(size int) *Cache {
	if size <= 0 {
		return nil
	}
	return &Cache{size: size, order: list.New(), items: make(map[Key]*list.Element, size)}
}

func (c *Cache) Get(k Key) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[k]
	if !ok {
		c.misses++
		return "", false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry).val, true
}

func (c *Cache) Put(k Key, v string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[k]; ok {
		el.Value.(*entry).val = v
		c.order.MoveToFront(el)
		return
	}
	c.items[k] = c.order.PushFront(&entry{key: k, val: v})
	for c.order.Len() > c.size {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.items, last.Value.(*entry).key)
	}
}

// Len is the number of cached documents.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
