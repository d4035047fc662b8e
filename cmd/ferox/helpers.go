/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/feroxcrypt/ferox"
)

// cryptoFlags are the flags shared by encrypt, decrypt, batch-encrypt,
// and batch-decrypt, per the CLI surface in the spec.
type cryptoFlags struct {
	level     string
	force     bool
	keyfile   string
	recursive bool
	includes  []string
	excludes  []string
}

func (f *cryptoFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.level, "level", "interactive", "Argon2id cost profile: interactive, moderate, or paranoid")
	cmd.Flags().BoolVar(&f.force, "force", false, "overwrite an existing output file")
	cmd.Flags().StringVar(&f.keyfile, "keyfile", "", "path to a keyfile strengthening the password")
	cmd.Flags().BoolVar(&f.recursive, "recursive", false, "descend into subdirectories (batch operations only)")
	cmd.Flags().StringArrayVar(&f.includes, "include", nil, "only process files whose basename matches this glob (repeatable)")
	cmd.Flags().StringArrayVar(&f.excludes, "exclude", nil, "skip files whose basename matches this glob (repeatable, wins over --include)")
}

func (f *cryptoFlags) securityLevel() (ferox.SecurityLevel, error) {
	return ferox.ParseSecurityLevel(f.level)
}

func (f *cryptoFlags) loadKeyfile() ([]byte, error) {
	if f.keyfile == "" {
		return nil, nil
	}
	return ferox.LoadKeyfile(f.keyfile)
}

// readPassword prompts for a password on the controlling terminal with
// echo disabled, falling back to a single line read from stdin when
// stdin isn't a terminal (scripted/piped invocations).
func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		return pw, nil
	}

	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line = append(line, buf[0])
		}
		if err != nil {
			break
		}
	}
	return line, nil
}

// installInterruptGuard arms g for cleanup on SIGINT/SIGTERM: if the
// process is interrupted mid-write, the partially written output is
// removed instead of left on disk. Returns a context, to pass to the
// crypto operation, that is cancelled when such a signal arrives, and
// a func to release the signal handler once the operation has returned.
func installInterruptGuard(parent context.Context, g *ferox.Guard) (ctx context.Context, release func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			g.Cleanup()
			cancel()
		case <-done:
		}
	}()

	return ctx, func() {
		close(done)
		signal.Stop(sigCh)
	}
}
