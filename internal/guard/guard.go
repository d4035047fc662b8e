/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// Package guard implements the interrupt-safe write discipline: a
// shared cell holding at most one "currently-open output path". A
// worker arms it before opening an output file and disarms it on
// success; an externally installed signal handler (or an error path)
// can call Cleanup at any time to delete whatever is currently armed.
//
// The cell is deliberately a single path, not a set: one worker owns
// one output at a time. A batch driver running several workers gives
// each its own Guard.
package guard

import (
	"os"
	"sync"
)

// Guard is the shared "currently-open destination path" cell.
type Guard struct {
	mu   sync.Mutex
	path string
}

// New returns a disarmed Guard.
func New() *Guard {
	return &Guard{}
}

// Arm records path as the currently-open output. Call before opening
// the output file.
func (g *Guard) Arm(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.path = path
}

// Disarm clears the guard after a successful write. No file is
// touched.
func (g *Guard) Disarm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.path = ""
}

// Path returns the currently-armed path, or "" if none.
func (g *Guard) Path() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.path
}

// Cleanup deletes whatever path is currently armed, then disarms.
// Safe to call from a signal handler (the lock is held only for a
// read and a single-word clear, never across I/O) and from an error
// path in the worker that armed it; whichever runs first wins, the
// second is a harmless no-op against an already-removed file.
func (g *Guard) Cleanup() {
	g.mu.Lock()
	path := g.path
	g.path = ""
	g.mu.Unlock()

	if path != "" {
		_ = os.Remove(path)
	}
}
