package keybind

import (
	"sync"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// binding is one trie node: either a terminal Value or a nested map of
// further bindings. Never both.
type binding struct {
	isValue bool
	value   any
	nested  map[KeyCombine]*binding
}

// KeyMap is a prefix trie over KeyCombines, each path terminating in either
// an action value or descending into a further KeyMap. All trie keys are
// canonicalized (CapsLock/NumLock masked off) before lookup or storage.
type KeyMap struct {
	mu   sync.RWMutex
	root map[KeyCombine]*binding
}

// NewKeyMap creates an empty KeyMap.
func NewKeyMap() *KeyMap {
	return &KeyMap{root: make(map[KeyCombine]*binding)}
}

// Add installs value at sequence. Rebinding an existing terminal Value
// replaces it. Installing over an existing Map (sequence is a proper prefix
// of another binding), or through an existing Value (some proper prefix of
// sequence is already bound), fails with kerrors.Conflict.
func (km *KeyMap) Add(seq KeySequence, value any) error {
	if len(seq) == 0 {
		return kerrors.New(kerrors.Parse, "cannot bind an empty key sequence")
	}
	km.mu.Lock()
	defer km.mu.Unlock()

	m := km.root
	for i, raw := range seq {
		key := raw.Canonical()
		last := i == len(seq)-1
		node, exists := m[key]

		if last {
			if exists && !node.isValue {
				return kerrors.New(kerrors.Conflict, "key sequence %s is a prefix of an existing binding", seq)
			}
			m[key] = &binding{isValue: true, value: value}
			return nil
		}

		if !exists {
			node = &binding{nested: make(map[KeyCombine]*binding)}
			m[key] = node
		} else if node.isValue {
			return kerrors.New(kerrors.Conflict, "key sequence %s collides with an existing shorter binding", seq)
		}
		m = node.nested
	}
	return nil
}

// Remove deletes the terminal Value at sequence. If the path does not fully
// exist, or ends at a nested Map rather than a Value, Remove is a no-op:
// removing a proper prefix of other bindings must never silently delete
// their subtree.
func (km *KeyMap) Remove(seq KeySequence) {
	if len(seq) == 0 {
		return
	}
	km.mu.Lock()
	defer km.mu.Unlock()

	m := km.root
	for i, raw := range seq {
		key := raw.Canonical()
		node, exists := m[key]
		if !exists {
			return
		}
		if i == len(seq)-1 {
			if node.isValue {
				delete(m, key)
			}
			return
		}
		if node.isValue {
			return
		}
		m = node.nested
	}
}

// Lookup resolves sequence to its bound value. It fails with
// kerrors.NotFound if any prefix of the path is unbound, or if the path
// terminates at a nested Map rather than a Value.
func (km *KeyMap) Lookup(seq KeySequence) (any, error) {
	if len(seq) == 0 {
		return nil, kerrors.New(kerrors.NotFound, "empty key sequence has no binding")
	}
	km.mu.RLock()
	defer km.mu.RUnlock()

	m := km.root
	for i, raw := range seq {
		key := raw.Canonical()
		node, exists := m[key]
		if !exists {
			return nil, kerrors.New(kerrors.NotFound, "key sequence %s is not bound", seq)
		}
		if i == len(seq)-1 {
			if !node.isValue {
				return nil, kerrors.New(kerrors.NotFound, "key sequence %s is not bound", seq)
			}
			return node.value, nil
		}
		if node.isValue {
			return nil, kerrors.New(kerrors.NotFound, "key sequence %s is not bound", seq)
		}
		m = node.nested
	}
	return nil, kerrors.New(kerrors.NotFound, "key sequence %s is not bound", seq)
}

// step looks up a single canonicalized KeyCombine in this KeyMap's top level
// and reports whether it hit a terminal Value, a nested map to continue a
// walk with, or nothing. Used by KeyDispatcher to implement the trie walk
// across dispatch calls without exposing binding internals.
func (km *KeyMap) step(k KeyCombine) (value any, next *KeyMap, ok bool) {
	km.mu.RLock()
	defer km.mu.RUnlock()
	node, exists := km.root[k.Canonical()]
	if !exists {
		return nil, nil, false
	}
	if node.isValue {
		return node.value, nil, true
	}
	return nil, &KeyMap{root: node.nested}, true
}
