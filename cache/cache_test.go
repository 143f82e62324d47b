package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestKeyOf(t *testing.T) {
	tests := []struct {
		name string
		a, b Key
		same bool
	}{
		{"identical", KeyOf(true, "x^2"), KeyOf(true, "x^2"), true},
		{"mode", KeyOf(true, "x^2"), KeyOf(false, "x^2"), false},
		{"source", KeyOf(true, "x^2"), KeyOf(true, "x^3"), false},
		{"extra boundaries", KeyOf(true, "a", "bc"), KeyOf(true, "ab", "c"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.a == tt.b) != tt.same {
				t.Errorf("keys equal = %v, want %v", tt.a == tt.b, tt.same)
			}
		})
	}
}

func TestEviction(t *testing.T) {
	c := New(2)
	a, b, d := KeyOf(true, "a"), KeyOf(true, "b"), KeyOf(true, "d")
	c.Put(a, "A")
	c.Put(b, "B")
	if _, ok := c.Get(a); !ok { // a becomes most recent
		t.Fatal("a missing")
	}
	c.Put(d, "D")
	if _, ok := c.Get(b); ok {
		t.Error("least recently used entry survived")
	}
	if v, ok := c.Get(a); !ok || v != "A" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache = New(0)
	c.Put(KeyOf(false, "x"), "X")
	if _, ok := c.Get(KeyOf(false, "x")); ok {
		t.Error("disabled cache returned a value")
	}
	if c.Len() != 0 {
		t.Error("disabled cache has entries")
	}
}

func TestConcurrent(t *testing.T) {
	c := New(16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k := KeyOf(j%2 == 0, fmt.Sprint(j%32))
				c.Put(k, fmt.Sprint(i))
				c.Get(k)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Errorf("Len = %d exceeds size", c.Len())
	}
}
