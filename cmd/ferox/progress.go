/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/feroxcrypt/ferox"
)

// newConsoleProgress renders a single updating "N bytes processed"
// line to stderr, so it never interleaves with a command's stdout
// output (the final success message, or a batch report table).
func newConsoleProgress(label string) ferox.ProgressSink {
	var total atomic.Int64
	return ferox.ProgressFunc{
		Bytes: func(n int64) {
			sum := total.Add(n)
			fmt.Fprintf(os.Stderr, "\r%s: %s", label, humanize.Bytes(uint64(sum)))
		},
		Finish: func(total int64) {
			fmt.Fprintf(os.Stderr, "\r%s: %s\n", label, humanize.Bytes(uint64(total)))
		},
	}
}
