/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// Package secure holds the two primitives every sensitive buffer in
// ferox routes through: a zeroizer that survives compiler elision, and
// a constant-time comparison for tag and checksum verification.
package secure

import (
	"crypto/subtle"
)

// Zero securely zeroes a byte slice using constant-time operations.
// Every password, derived key, mixed-password, and keyfile buffer
// passes through Zero before its backing storage is released.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	for i := range b {
		b[i] = 0
	}
	// subtle.ConstantTimeCompare forces the zeroing loop past compiler elision.
	_ = subtle.ConstantTimeCompare(b, make([]byte, len(b)))
}

// SecureCompare performs constant-time comparison of two byte slices.
// Used for HMAC tag verification so a mismatch never reveals which
// byte differed through timing.
func SecureCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
