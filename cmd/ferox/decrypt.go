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

func newDecryptCmd() *cobra.Command {
	var outputDir string
	flags := &cryptoFlags{}
	cmd := &cobra.Command{
		Use:   "decrypt <file.feroxcrypt>",
		Short: "Decrypt a single container, recovering its original filename",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecrypt(args[0], outputDir, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory to write the recovered file into (default: alongside the container)")
	return cmd
}

func runDecrypt(containerPath, outputDir string, flags *cryptoFlags) error {
	kf, err := flags.loadKeyfile()
	if err != nil {
		return ferox.Sanitize(err)
	}
	defer ferox.ZeroBytes(kf)

	password, err := readPassword(fmt.Sprintf("Password for %s: ", containerPath))
	if err != nil {
		return err
	}
	defer ferox.ZeroBytes(password)

	guard := ferox.NewGuard()
	ctx, release := installInterruptGuard(context.Background(), guard)
	defer release()

	err = ferox.Decrypt(ctx, ferox.DecryptRequest{
		ContainerPath:  containerPath,
		OutputDir:      outputDir,
		ForceOverwrite: flags.force,
		Password:       password,
		Keyfile:        kf,
		Guard:          guard,
		Progress:       newConsoleProgress("decrypting"),
		Logger:         newLogger(IsVerbose()),
	})
	if err != nil {
		return ferox.Sanitize(err)
	}

	fmt.Printf("decrypted %s\n", containerPath)
	return nil
}
