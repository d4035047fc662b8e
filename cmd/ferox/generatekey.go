/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feroxcrypt/ferox"
)

func newGenerateKeyCmd() *cobra.Command {
	var length int
	var force bool
	cmd := &cobra.Command{
		Use:   "generate-key <path>",
		Short: "Write a random keyfile for strengthening a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := ferox.GenerateKeyfile(path, length, force); err != nil {
				return ferox.Sanitize(err)
			}
			fmt.Printf("wrote keyfile: %s\n", path)
			return nil
		},
	}
	cmd.Flags().IntVar(&length, "length", 64, "keyfile length in bytes")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing keyfile")
	return cmd
}
