/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

package container

import "fmt"

// SecurityLevel selects an Argon2id cost profile for encryption. It is
// never written to the container; only the resulting KDFParams are.
type SecurityLevel uint8

const (
	Interactive SecurityLevel = iota
	Moderate
	Paranoid
)

// KDFParams are the three Argon2id cost parameters as they appear,
// verbatim, in a container header.
type KDFParams struct {
	MemoryKiB   uint32
	TimeCost    uint32
	Parallelism uint8
}

// Params returns the fixed (memory_kib, time_cost, parallelism) triple
// for a security level.
func (l SecurityLevel) Params() (KDFParams, error) {
	switch l {
	case Interactive:
		return KDFParams{MemoryKiB: 19456, TimeCost: 2, Parallelism: 1}, nil
	case Moderate:
		return KDFParams{MemoryKiB: 65536, TimeCost: 3, Parallelism: 1}, nil
	case Paranoid:
		return KDFParams{MemoryKiB: 262144, TimeCost: 4, Parallelism: 1}, nil
	default:
		return KDFParams{}, fmt.Errorf("unknown security level %d", l)
	}
}

func (l SecurityLevel) String() string {
	switch l {
	case Interactive:
		return "interactive"
	case Moderate:
		return "moderate"
	case Paranoid:
		return "paranoid"
	default:
		return "unknown"
	}
}

// ParseSecurityLevel maps a CLI-facing name to a SecurityLevel.
func ParseSecurityLevel(s string) (SecurityLevel, error) {
	switch s {
	case "interactive":
		return Interactive, nil
	case "moderate":
		return Moderate, nil
	case "paranoid":
		return Paranoid, nil
	default:
		return 0, fmt.Errorf("unknown security level %q (want interactive, moderate, or paranoid)", s)
	}
}
