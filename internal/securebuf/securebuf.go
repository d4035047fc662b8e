/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// Package securebuf wraps sensitive key material (the derived
// encryption and authentication keys) in a handle whose Destroy path
// zeroes the backing storage and releases any memory lock, instead of
// leaving that discipline to callers. Mixed passwords and keyfile
// contents are not held in a Buffer; their holders zero them with
// secure.Zero.
package securebuf

import (
	"sync"

	"github.com/feroxcrypt/ferox/secure"
)

// Buffer provides memory-safe storage for sensitive key material.
type Buffer struct {
	buf    []byte
	mu     sync.Mutex
	zeroed bool
	unlock func()
}

// New copies b into a locked (best effort) buffer. The caller still
// owns the original b and should zero it separately if it is no
// longer needed.
func New(b []byte) *Buffer {
	buf := make([]byte, len(b))
	copy(buf, b)

	unlock := func() {}
	if err := secure.LockMemory(buf); err == nil {
		unlock = func() {
			_ = secure.UnlockMemory(buf)
		}
	}

	return &Buffer{buf: buf, unlock: unlock}
}

// Data returns the buffer contents. The returned slice aliases the
// buffer's storage; it becomes invalid after Destroy.
func (b *Buffer) Data() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf
}

// Destroy zeroes the buffer, unlocks memory, and marks it destroyed.
// Safe to call more than once.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.zeroed {
		return
	}
	secure.Zero(b.buf)
	b.zeroed = true
	if b.unlock != nil {
		b.unlock()
	}
}
