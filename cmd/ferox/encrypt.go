/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feroxcrypt/ferox"
)

func newEncryptCmd() *cobra.Command {
	flags := &cryptoFlags{}
	cmd := &cobra.Command{
		Use:   "encrypt <file>",
		Short: "Encrypt a single file in place, writing <file>.feroxcrypt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncrypt(args[0], flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runEncrypt(source string, flags *cryptoFlags) error {
	level, err := flags.securityLevel()
	if err != nil {
		return err
	}
	kf, err := flags.loadKeyfile()
	if err != nil {
		return ferox.Sanitize(err)
	}
	defer ferox.ZeroBytes(kf)

	password, err := readPassword(fmt.Sprintf("Password for %s: ", source))
	if err != nil {
		return err
	}
	defer ferox.ZeroBytes(password)

	guard := ferox.NewGuard()
	ctx, release := installInterruptGuard(context.Background(), guard)
	defer release()

	err = ferox.Encrypt(ctx, ferox.EncryptRequest{
		SourcePath:     source,
		ForceOverwrite: flags.force,
		Password:       password,
		Level:          level,
		Keyfile:        kf,
		Guard:          guard,
		Progress:       newConsoleProgress("encrypting"),
		Logger:         newLogger(IsVerbose()),
	})
	if err != nil {
		return ferox.Sanitize(err)
	}

	fmt.Printf("encrypted %s -> %s.feroxcrypt (%s level)\n", source, source, level)
	return nil
}
