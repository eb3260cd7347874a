package core_test

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/0xRadioAc7iv/go-cmdwire/core"
)

func TestKeyspaceSetGet(t *testing.T) {
	ks := core.NewKeyspace()

	if _, ok := ks.Get("foo"); ok {
		t.Fatal("expected empty keyspace")
	}

	ks.Set("foo", "bar")
	ks.Set("foo", "baz")

	val, ok := ks.Get("foo")
	if !ok || val != "baz" {
		t.Fatalf("expected baz, got %q (%v)", val, ok)
	}
	if ks.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", ks.Len())
	}
}

func TestKeyspaceDeleteExists(t *testing.T) {
	ks := core.NewKeyspace()
	ks.Set("a", "1")
	ks.Set("b", "2")

	if n := ks.Exists("a", "a", "missing"); n != 2 {
		t.Fatalf("Exists = %d, want 2", n)
	}
	if n := ks.Delete("a", "missing"); n != 1 {
		t.Fatalf("Delete = %d, want 1", n)
	}
	if n := ks.Exists("a"); n != 0 {
		t.Fatalf("deleted key still exists")
	}
}

func TestKeyspaceKeysSorted(t *testing.T) {
	ks := core.NewKeyspace()
	for _, k := range []string{"pear", "apple", "fig", "banana"} {
		ks.Set(k, "x")
	}

	want := []string{"apple", "banana", "fig", "pear"}
	if got := ks.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys = %v, want %v", got, want)
	}
}

func TestKeyspaceConcurrent(t *testing.T) {
	ks := core.NewKeyspace()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d-%d", i, j)
				ks.Set(key, "v")
				ks.Get(key)
				ks.Keys()
			}
		}(i)
	}
	wg.Wait()

	if ks.Len() != 800 {
		t.Fatalf("expected 800 keys, got %d", ks.Len())
	}
}
