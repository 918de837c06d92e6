package keybind

import (
	"sync"

	"github.com/kerneld-io/kerneld/internal/obs"
)

type namedMap struct {
	name string
	km   *KeyMap
}

// KeyDispatcher holds a stack of named KeyMaps and a single in-progress trie
// walk shared across all of them. Matched values are published to every
// subscriber channel.
//
// A walk in progress has exclusive consumption of incoming keystrokes: once
// a keystroke selects a nested map in some stack entry, every subsequent
// keystroke is resolved against only that cursor map until it yields a
// Value (dispatched and the walk resets) or a miss (the walk resets with
// nothing dispatched) — the miss is never re-tried against the rest of the
// stack in the same dispatch.
type KeyDispatcher struct {
	mu        sync.RWMutex
	stack     []namedMap
	cursor    *KeyMap
	listeners []chan any
}

// NewKeyDispatcher creates an empty dispatcher.
func NewKeyDispatcher() *KeyDispatcher {
	return &KeyDispatcher{}
}

// Push adds a named KeyMap to the top of the stack.
func (d *KeyDispatcher) Push(name string, km *KeyMap) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stack = append(d.stack, namedMap{name: name, km: km})
}

// Pop removes and returns the topmost KeyMap's name, or "" if the stack is
// empty.
func (d *KeyDispatcher) Pop() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.stack) == 0 {
		return ""
	}
	top := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	return top.name
}

// Remove removes the named KeyMap from the stack wherever it sits, not only
// at the top.
func (d *KeyDispatcher) Remove(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.stack[:0]
	for _, nm := range d.stack {
		if nm.name != name {
			out = append(out, nm)
		}
	}
	d.stack = out
}

// Subscribe returns a channel that receives every Value this dispatcher
// matches from here on.
func (d *KeyDispatcher) Subscribe() <-chan any {
	ch := make(chan any, 16)
	d.mu.Lock()
	d.listeners = append(d.listeners, ch)
	d.mu.Unlock()
	return ch
}

func (d *KeyDispatcher) publish(value any) {
	d.mu.RLock()
	listeners := append([]chan any(nil), d.listeners...)
	d.mu.RUnlock()
	for _, ch := range listeners {
		select {
		case ch <- value:
		default:
			obs.Logger.WithField("component", "keybind.dispatcher").Warn("dropping matched action: subscriber channel full")
		}
	}
}

// Feed processes one incoming KeyCombine, advancing or resetting the
// in-progress walk and publishing a Value if one is matched.
func (d *KeyDispatcher) Feed(k KeyCombine) {
	d.mu.Lock()

	if d.cursor != nil {
		value, next, ok := d.cursor.step(k)
		d.cursor = next
		d.mu.Unlock()
		if ok && next == nil {
			d.publish(value)
		}
		return
	}

	// No walk in progress: search the stack top to bottom for the first map
	// that contains a binding at k.
	for i := len(d.stack) - 1; i >= 0; i-- {
		value, next, ok := d.stack[i].km.step(k)
		if !ok {
			continue
		}
		d.cursor = next
		d.mu.Unlock()
		if next == nil {
			d.publish(value)
		}
		return
	}
	d.mu.Unlock()
}
