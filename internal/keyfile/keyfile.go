/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// Package keyfile generates, loads, and mixes the optional secondary
// secret that strengthens password-based key derivation. The keyfile
// path itself is never written into a container; only its effect on
// the derived keys is.
package keyfile

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/feroxcrypt/ferox/internal/ferrors"
)

const (
	// DefaultLength is the recommended keyfile size in bytes.
	DefaultLength = 64

	// MaxLoadSize caps how much of a candidate keyfile we will read,
	// so a user pointing us at an arbitrary large file fails fast
	// instead of silently hashing gigabytes of it.
	MaxLoadSize = 1 * 1024 * 1024
)

// Generate draws length bytes from the system CSPRNG and writes them
// to path with owner-only permissions where the OS supports it.
func Generate(path string, length int, forceOverwrite bool) error {
	if length <= 0 {
		return ferrors.New(ferrors.KeyfileError, "generate_keyfile", path, fmt.Errorf("length must be positive, got %d", length))
	}

	if !forceOverwrite {
		if _, err := os.Stat(path); err == nil {
			return ferrors.New(ferrors.OutputExists, "generate_keyfile", path, fmt.Errorf("keyfile already exists"))
		} else if !os.IsNotExist(err) {
			return ferrors.New(ferrors.IoError, "generate_keyfile", path, err)
		}
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return ferrors.New(ferrors.InternalCryptoError, "generate_keyfile", path, err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !forceOverwrite {
		flags |= os.O_EXCL
	}
	// #nosec G304 -- path is operator-supplied; generating a keyfile is this function's purpose
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return ferrors.New(ferrors.IoError, "generate_keyfile", path, err)
	}
	defer f.Close()

	if _, err := f.Write(buf); err != nil {
		return ferrors.New(ferrors.IoError, "generate_keyfile", path, err)
	}
	return f.Close()
}

// Load reads a whole keyfile into memory. It rejects empty files and
// anything past MaxLoadSize, since a keyfile is meant to be a small
// fixed-length secret, not arbitrary user data.
func Load(path string) ([]byte, error) {
	// #nosec G304 -- path is operator-supplied; loading a keyfile is this function's purpose
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.New(ferrors.KeyfileError, "load_keyfile", path, fmt.Errorf("keyfile not found"))
		}
		return nil, ferrors.New(ferrors.KeyfileError, "load_keyfile", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, ferrors.New(ferrors.IoError, "load_keyfile", path, err)
	}
	if info.Size() == 0 {
		return nil, ferrors.New(ferrors.KeyfileError, "load_keyfile", path, fmt.Errorf("keyfile is empty"))
	}
	if info.Size() > MaxLoadSize {
		return nil, ferrors.New(ferrors.KeyfileError, "load_keyfile", path, fmt.Errorf("keyfile exceeds %d byte sanity cap", MaxLoadSize))
	}

	buf := make([]byte, info.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, ferrors.New(ferrors.IoError, "load_keyfile", path, err)
	}
	return buf, nil
}

// MixPassword combines a keyfile's bytes with a password into a
// 32-byte value suitable as Argon2id's password input:
// HMAC-SHA256(key=keyfileBytes, message=passwordBytes).
//
// Deterministic given the same inputs, and collision-free with
// respect to password/keyfile length the way naive concatenation
// would not be.
func MixPassword(keyfileBytes, password []byte) []byte {
	mac := hmac.New(sha256.New, keyfileBytes)
	mac.Write(password)
	return mac.Sum(nil)
}
