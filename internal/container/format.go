/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// format.go: wire layout constants for the .feroxcrypt container.
//
// Layout, fixed, little-endian, no padding:
//
//	filename_length (2)  original_filename (var)  salt (16)  iv (16)
//	kdf_memory_kib (4)   kdf_time_cost (4)         kdf_parallelism (4)
//	ciphertext (var)     tag (32)
//
// There is no magic/version prefix: detection relies on the
// .feroxcrypt extension for routing and HMAC verification for
// correctness, per the canonical format.
package container

const (
	FilenameLenSize = 2
	SaltSize        = 16
	IVSize          = 16
	KDFFieldSize    = 4 // each of memory_kib, time_cost, parallelism
	TagSize         = 32

	// MaxFilenameLength is the largest basename filename_length can encode.
	MaxFilenameLength = 65535

	// MinContainerSize is the smallest legal container: a 1-byte
	// filename, no ciphertext.
	MinContainerSize = FilenameLenSize + 1 + SaltSize + IVSize + 3*KDFFieldSize + TagSize // 79

	// BufferSize is the streaming I/O chunk size for encrypt and decrypt.
	BufferSize = 4 * 1024 * 1024

	// Extension is the container file suffix.
	Extension = ".feroxcrypt"

	// DerivedKeyLen is the Argon2id output length: 32 bytes encryption
	// key followed by 32 bytes authentication key.
	DerivedKeyLen = 64

	// MinArgon2MemoryKiB is Argon2's own floor, independent of parallelism.
	MinArgon2MemoryKiB = 8

	// Sanity ceilings applied to header-supplied KDF parameters during
	// decrypt, to prevent a malicious or corrupted header from forcing
	// a resource-exhausting derivation.
	MaxHeaderKDFMemoryKiB   = 4 * 1024 * 1024 // 4 GiB
	MaxHeaderKDFTimeCost    = 1 << 16
	MaxHeaderKDFParallelism = 1<<8 - 1
)
