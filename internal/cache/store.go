// Package cache holds the content-addressed store that memoizes paid external operations.
//
// Entries are immutable: Put on an existing key is a no-op and reports stored=false.
// Every Store implementation must be safe for concurrent use.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joseph-ayodele/papertrans/constants"
)

// SharedScope is the document component of content-addressed keys shared across documents.
const SharedScope = "*"

// DocumentBlock is the block component of per-document keys.
const DocumentBlock = "-"

// Key identifies one cached result.
type Key struct {
	Scope     string // document identity, or SharedScope
	BlockHash string
	Operation string
}

func (k Key) String() string {
	return k.Operation + ":" + k.Scope + ":" + k.BlockHash
}

// Valid reports whether every component is populated.
func (k Key) Valid() bool {
	return k.Scope != "" && k.BlockHash != "" && k.Operation != ""
}

// TranslateKey addresses the translation of one block's content.
func TranslateKey(blockHash string) Key {
	return Key{Scope: SharedScope, BlockHash: blockHash, Operation: constants.OpTranslate}
}

// LayoutKey addresses the recognizer output for one page image.
func LayoutKey(imageHash string) Key {
	return Key{Scope: SharedScope, BlockHash: imageHash, Operation: constants.OpLayout}
}

// ClassifyKey addresses the tags of one document.
func ClassifyKey(docKey string) Key {
	return Key{Scope: docKey, BlockHash: DocumentBlock, Operation: constants.OpClassify}
}

// ReassembleKey addresses the final output of one document.
func ReassembleKey(docKey string) Key {
	return Key{Scope: docKey, BlockHash: DocumentBlock, Operation: constants.OpReassemble}
}

// Entry is a stored result.
type Entry struct {
	Key       Key
	Value     []byte
	CreatedAt time.Time
}

// Store is the content cache contract.
type Store interface {
	// Get returns the entry for key; ok is false when absent.
	Get(ctx context.Context, key Key) (entry Entry, ok bool, err error)
	// Put writes value unless key already exists. stored reports whether this call wrote it.
	Put(ctx context.Context, key Key, value []byte) (stored bool, err error)
	Close() error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GetJSON decodes a cached JSON value into out.
func GetJSON(ctx context.Context, s Store, key Key, out any) (bool, error) {
	e, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(e.Value, out); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and writes it if absent.
func PutJSON(ctx context.Context, s Store, key Key, v any) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return s.Put(ctx, key, b)
}

func checkKey(key Key) error {
	if !key.Valid() {
		return fmt.Errorf("invalid cache key %q", key.String())
	}
	return nil
}
