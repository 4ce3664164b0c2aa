package cache

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// RunStoreSuite checks the Store contract against any backend.
// open must return a fresh, empty store; it is called once per subtest.
func RunStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get absent", func(t *testing.T) {
		s := open(t)
		_, ok, err := s.Get(ctx, TranslateKey("missing"))
		if err != nil || ok {
			t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		s := open(t)
		key := TranslateKey("h1")
		stored, err := s.Put(ctx, key, []byte("你好"))
		if err != nil || !stored {
			t.Fatalf("Put() = %v, %v", stored, err)
		}
		e, ok, err := s.Get(ctx, key)
		if err != nil || !ok {
			t.Fatalf("Get() = ok=%v err=%v", ok, err)
		}
		if !bytes.Equal(e.Value, []byte("你好")) {
			t.Fatalf("Get() value = %q", e.Value)
		}
		if e.CreatedAt.IsZero() {
			t.Fatal("CreatedAt not set")
		}
	})

	t.Run("put is no-op when present", func(t *testing.T) {
		s := open(t)
		key := ClassifyKey("2501.00001@abc")
		if _, err := s.Put(ctx, key, []byte("first")); err != nil {
			t.Fatal(err)
		}
		stored, err := s.Put(ctx, key, []byte("second"))
		if err != nil {
			t.Fatal(err)
		}
		if stored {
			t.Fatal("second Put reported stored=true")
		}
		e, _, _ := s.Get(ctx, key)
		if string(e.Value) != "first" {
			t.Fatalf("entry mutated: %q", e.Value)
		}
	})

	t.Run("operations and scopes are distinct", func(t *testing.T) {
		s := open(t)
		keys := []Key{
			TranslateKey("same"),
			LayoutKey("same"),
			{Scope: "doc-a", BlockHash: "same", Operation: "translate"},
		}
		for i, k := range keys {
			if stored, err := s.Put(ctx, k, []byte(fmt.Sprint(i))); err != nil || !stored {
				t.Fatalf("Put(%s) = %v, %v", k, stored, err)
			}
		}
		for i, k := range keys {
			e, ok, err := s.Get(ctx, k)
			if err != nil || !ok || string(e.Value) != fmt.Sprint(i) {
				t.Fatalf("Get(%s) = %q ok=%v err=%v", k, e.Value, ok, err)
			}
		}
	})

	t.Run("invalid key rejected", func(t *testing.T) {
		s := open(t)
		if _, err := s.Put(ctx, Key{Operation: "translate"}, []byte("x")); err == nil {
			t.Fatal("expected error for incomplete key")
		}
	})

	t.Run("concurrent writers to one key", func(t *testing.T) {
		s := open(t)
		key := TranslateKey("raced")
		var wg sync.WaitGroup
		var winners atomic.Int32
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				stored, err := s.Put(ctx, key, []byte("same content"))
				if err != nil {
					t.Errorf("Put: %v", err)
					return
				}
				if stored {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()
		if got := winners.Load(); got != 1 {
			t.Fatalf("%d writers reported stored=true, want 1", got)
		}
		e, ok, err := s.Get(ctx, key)
		if err != nil || !ok || string(e.Value) != "same content" {
			t.Fatalf("Get() = %q ok=%v err=%v", e.Value, ok, err)
		}
	})

	t.Run("json helpers", func(t *testing.T) {
		s := open(t)
		key := ReassembleKey("doc@1")
		in := map[string][]string{"domain": {"NLP"}}
		if _, err := PutJSON(ctx, s, key, in); err != nil {
			t.Fatal(err)
		}
		var out map[string][]string
		ok, err := GetJSON(ctx, s, key, &out)
		if err != nil || !ok || out["domain"][0] != "NLP" {
			t.Fatalf("GetJSON() = %v ok=%v err=%v", out, ok, err)
		}
	})
}

// RunDurabilitySuite checks that entries survive closing and reopening the backend.
// reopen must return a store over the same underlying storage each time it is called.
func RunDurabilitySuite(t *testing.T, reopen func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()
	key := TranslateKey("durable")

	s := reopen(t)
	if _, err := s.Put(ctx, key, []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2 := reopen(t)
	defer s2.Close()
	e, ok, err := s2.Get(ctx, key)
	if err != nil || !ok || string(e.Value) != "persisted" {
		t.Fatalf("after reopen Get() = %q ok=%v err=%v", e.Value, ok, err)
	}
}
