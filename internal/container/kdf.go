/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// kdf.go: Argon2id key derivation for the container engine.
package container

import (
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/feroxcrypt/ferox/internal/ferrors"
	"github.com/feroxcrypt/ferox/internal/securebuf"
	"github.com/feroxcrypt/ferox/secure"
)

// ValidateKDFParams enforces Argon2's own floor (memory >= 8 KiB per
// lane, time >= 1, parallelism >= 1). Callers on the decrypt path
// additionally enforce the header sanity ceilings in format.go before
// reaching here, since those guard against resource exhaustion rather
// than correctness.
func ValidateKDFParams(p KDFParams) error {
	if p.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", p.Parallelism)
	}
	if p.MemoryKiB < MinArgon2MemoryKiB*uint32(p.Parallelism) {
		return fmt.Errorf("memory cost must be at least %d KiB for parallelism %d, got %d", MinArgon2MemoryKiB*uint32(p.Parallelism), p.Parallelism, p.MemoryKiB)
	}
	if p.TimeCost < 1 {
		return fmt.Errorf("time cost must be at least 1, got %d", p.TimeCost)
	}
	return nil
}

// DeriveKeys runs Argon2id over (password, salt, params) and splits
// the 64-byte output into an encryption key and an authentication
// key, each held in a securebuf.Buffer the caller must Destroy.
//
// password is the mixed password (see keyfile.MixPassword) when a
// keyfile is in play, otherwise the raw UTF-8 password bytes.
func DeriveKeys(password, salt []byte, params KDFParams) (encKey, macKey *securebuf.Buffer, err error) {
	if err := ValidateKDFParams(params); err != nil {
		return nil, nil, ferrors.New(ferrors.InternalCryptoError, "derive_keys", "", err)
	}
	if len(salt) != SaltSize {
		return nil, nil, ferrors.New(ferrors.InternalCryptoError, "derive_keys", "", fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt)))
	}

	out := argon2.IDKey(password, salt, params.TimeCost, params.MemoryKiB, params.Parallelism, DerivedKeyLen)
	defer secure.Zero(out)

	encKey = securebuf.New(out[:32])
	macKey = securebuf.New(out[32:])
	return encKey, macKey, nil
}
