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
	"runtime"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/feroxcrypt/ferox"
)

func newBatchEncryptCmd() *cobra.Command {
	var workers int
	flags := &cryptoFlags{}
	cmd := &cobra.Command{
		Use:   "batch-encrypt <directory>",
		Short: "Encrypt every matching file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(args[0], ferox.BatchEncrypt, workers, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "number of files to process concurrently")
	return cmd
}

func newBatchDecryptCmd() *cobra.Command {
	var workers int
	flags := &cryptoFlags{}
	cmd := &cobra.Command{
		Use:   "batch-decrypt <directory>",
		Short: "Decrypt every matching .feroxcrypt file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(args[0], ferox.BatchDecrypt, workers, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "number of files to process concurrently")
	return cmd
}

func runBatch(root string, op ferox.BatchOp, workers int, flags *cryptoFlags) error {
	level, err := flags.securityLevel()
	if err != nil {
		return err
	}
	kf, err := flags.loadKeyfile()
	if err != nil {
		return ferox.Sanitize(err)
	}
	defer ferox.ZeroBytes(kf)

	verb := "encrypt"
	if op == ferox.BatchDecrypt {
		verb = "decrypt"
	}
	password, err := readPassword(fmt.Sprintf("Password to %s with: ", verb))
	if err != nil {
		return err
	}
	defer ferox.ZeroBytes(password)

	ctx := context.Background()
	report, err := ferox.RunBatch(ctx, ferox.BatchRequest{
		Root:           root,
		Recursive:      flags.recursive,
		Includes:       flags.includes,
		Excludes:       flags.excludes,
		Op:             op,
		ForceOverwrite: flags.force,
		Password:       password,
		Level:          level,
		Keyfile:        kf,
		Workers:        workers,
		Progress:       newConsoleProgress("batch " + verb),
		Logger:         newLogger(IsVerbose()),
	})
	if err != nil {
		return ferox.Sanitize(err)
	}

	printBatchReport(report)
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", report.Failed, report.Processed)
	}
	return nil
}

func printBatchReport(report ferox.BatchReport) {
	fmt.Printf("\nprocessed %d, succeeded %d, skipped %d, failed %d\n",
		report.Processed, report.Succeeded, report.Skipped, report.Failed)

	if len(report.Failures) == 0 {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Path", "Reason"})
	rows := make([][]string, 0, len(report.Failures))
	for _, f := range report.Failures {
		rows = append(rows, []string{f.Path, f.Reason})
	}
	_ = table.Bulk(rows)
	_ = table.Render()

	color.New(color.FgRed).Printf("%d file(s) failed\n", len(report.Failures))
}
