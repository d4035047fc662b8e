/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// Package ferox turns a plaintext file into a single self-describing
// ciphertext container and back: a streaming AES-256-CTR-with-
// HMAC-SHA256 pipeline, Argon2id password derivation, optional keyfile
// mixing, an interrupt-safe write discipline, and a batch driver for
// applying all of that across a directory tree.
//
// # Basic usage
//
//	ctx := context.Background()
//	password := []byte("correct horse battery staple")
//	defer secure.Zero(password)
//
//	err := ferox.Encrypt(ctx, ferox.EncryptRequest{
//	    SourcePath: "report.pdf",
//	    Password:   password,
//	    Level:      ferox.Moderate,
//	})
//
//	err = ferox.Decrypt(ctx, ferox.DecryptRequest{
//	    ContainerPath: "report.pdf.feroxcrypt",
//	    Password:      password,
//	})
//
// Every operation here streams in bounded memory and is safe to
// interrupt: a partially written output never survives a failed or
// cancelled call. See the Guard type for wiring Ctrl-C handling in a
// caller.
package ferox

import (
	"context"

	"github.com/feroxcrypt/ferox/internal/batch"
	"github.com/feroxcrypt/ferox/internal/container"
	"github.com/feroxcrypt/ferox/internal/ferrors"
	"github.com/feroxcrypt/ferox/internal/guard"
	"github.com/feroxcrypt/ferox/internal/keyfile"
	"github.com/feroxcrypt/ferox/internal/progress"
	"github.com/feroxcrypt/ferox/secure"
)

// SecurityLevel selects an Argon2id cost profile. Re-exported from
// internal/container so callers never import that package directly.
type SecurityLevel = container.SecurityLevel

const (
	Interactive = container.Interactive
	Moderate    = container.Moderate
	Paranoid    = container.Paranoid
)

// ParseSecurityLevel maps a CLI-facing name ("interactive", "moderate",
// "paranoid") to a SecurityLevel.
func ParseSecurityLevel(name string) (SecurityLevel, error) {
	return container.ParseSecurityLevel(name)
}

// Guard is the interrupt-safe "currently-open output path" cell. A
// caller that wants Ctrl-C to delete a partial output installs a
// signal handler that calls (*Guard).Cleanup; the engine arms and
// disarms it around each file. The zero value is not usable; use
// NewGuard.
type Guard = guard.Guard

// NewGuard returns a disarmed Guard.
func NewGuard() *Guard { return guard.New() }

// ProgressSink receives incremental byte-count updates during a
// streaming encrypt or decrypt. A nil sink is a no-op.
type ProgressSink = progress.Sink

// ProgressFunc adapts two plain functions into a ProgressSink.
type ProgressFunc = progress.Func

// Logger is the structured-logging seam the engine writes through. A
// nil Logger is a no-op.
type Logger = container.Logger

// Error is the structured error every operation in this package
// returns on failure. Use errors.As to recover it, or Sanitize for a
// message safe to show a user.
type Error = ferrors.Error

// ErrorKind is a surface error category.
type ErrorKind = ferrors.Kind

const (
	KindInputNotFound        = ferrors.InputNotFound
	KindInputNotRegularFile  = ferrors.InputNotRegularFile
	KindAlreadyEncrypted     = ferrors.AlreadyEncrypted
	KindOutputExists         = ferrors.OutputExists
	KindFilenameTooLong      = ferrors.FilenameTooLong
	KindMalformedContainer   = ferrors.MalformedContainer
	KindAuthenticationFailed = ferrors.AuthenticationFailed
	KindKeyfileError         = ferrors.KeyfileError
	KindIoError              = ferrors.IoError
	KindInterrupted          = ferrors.Interrupted
	KindInternalCryptoError  = ferrors.InternalCryptoError
)

// KindOf extracts the ErrorKind of err, or the zero Kind if err did
// not originate in this package.
func KindOf(err error) ErrorKind { return ferrors.KindOf(err) }

// Sanitize produces a message safe for CLI or log display: no key
// material, no path-independent internal detail, and — deliberately —
// no distinction between a wrong password and a tampered file.
func Sanitize(err error) error { return ferrors.Sanitize(err) }

// ZeroBytes securely zeroes a byte slice. Callers should defer this
// over any password, derived key, or keyfile buffer they hold.
var ZeroBytes = secure.Zero

// EncryptRequest are the inputs to Encrypt.
type EncryptRequest struct {
	// SourcePath is the plaintext file to encrypt. The output is
	// written alongside it as SourcePath + ".feroxcrypt".
	SourcePath string
	// ForceOverwrite allows replacing an existing output file.
	ForceOverwrite bool
	// Password is the passphrase bytes. Ferox does not retain them
	// past key derivation; the caller should zero them after the
	// call returns.
	Password []byte
	// Level selects the Argon2id cost profile. Defaults to the zero
	// value, Interactive, if unset.
	Level SecurityLevel
	// Keyfile, if non-nil, strengthens the password via HMAC mixing.
	// Load one with LoadKeyfile.
	Keyfile []byte
	// Guard, if non-nil, is armed with the output path for the
	// duration of the call so an external interrupt handler can
	// delete a partial output.
	Guard *Guard
	// Progress, if non-nil, receives byte-count updates.
	Progress ProgressSink
	// Logger, if non-nil, receives structured operational events.
	Logger Logger
}

// Encrypt reads SourcePath, derives keys from Password (and Keyfile,
// if supplied), and writes an authenticated container to
// SourcePath + ".feroxcrypt". Failures are returned as *Error; see
// the Kind* constants for their categories.
func Encrypt(ctx context.Context, req EncryptRequest) error {
	return container.Encrypt(ctx, container.EncryptParams{
		SourcePath:     req.SourcePath,
		ForceOverwrite: req.ForceOverwrite,
		Password:       req.Password,
		Level:          req.Level,
		Keyfile:        req.Keyfile,
		Guard:          req.Guard,
		Progress:       req.Progress,
		Logger:         req.Logger,
	})
}

// DecryptRequest are the inputs to Decrypt.
type DecryptRequest struct {
	// ContainerPath is the .feroxcrypt file to decrypt.
	ContainerPath string
	// OutputDir overrides where the recovered file is written; empty
	// means the container's own directory.
	OutputDir string
	// ForceOverwrite allows replacing an existing output file.
	ForceOverwrite bool
	// Password must match the one used at encryption time.
	Password []byte
	// Keyfile must match the one used at encryption time, if any.
	Keyfile  []byte
	Guard    *Guard
	Progress ProgressSink
	Logger   Logger
}

// Decrypt verifies and recovers the plaintext from ContainerPath,
// writing it under its original basename. A wrong password, wrong
// keyfile, or tampered container all surface identically as
// KindAuthenticationFailed, and leave no output on disk.
func Decrypt(ctx context.Context, req DecryptRequest) error {
	return container.Decrypt(ctx, container.DecryptParams{
		ContainerPath:  req.ContainerPath,
		OutputDir:      req.OutputDir,
		ForceOverwrite: req.ForceOverwrite,
		Password:       req.Password,
		Keyfile:        req.Keyfile,
		Guard:          req.Guard,
		Progress:       req.Progress,
		Logger:         req.Logger,
	})
}

// GenerateKeyfile draws length bytes from the system CSPRNG and
// writes them to path with owner-only permissions. length <= 0 uses
// the recommended default of 64 bytes.
func GenerateKeyfile(path string, length int, forceOverwrite bool) error {
	if length <= 0 {
		length = keyfile.DefaultLength
	}
	return keyfile.Generate(path, length, forceOverwrite)
}

// LoadKeyfile reads a keyfile previously produced by GenerateKeyfile
// (or any file of sufficient random bytes) for use as EncryptRequest's
// or DecryptRequest's Keyfile field.
func LoadKeyfile(path string) ([]byte, error) {
	return keyfile.Load(path)
}

// BatchOp selects which operation a batch run applies to every
// selected file.
type BatchOp = batch.Op

const (
	BatchEncrypt = batch.OpEncrypt
	BatchDecrypt = batch.OpDecrypt
)

// BatchFailure records one file that did not complete successfully
// during a batch run.
type BatchFailure = batch.Failure

// BatchReport is the aggregate outcome of a batch run: how many files
// were processed, how many succeeded, how many were skipped by the
// filter rules, and the full list of failures with sanitized reasons.
type BatchReport = batch.Report

// BatchRequest are the inputs to RunBatch.
type BatchRequest struct {
	// Root is the directory to walk.
	Root string
	// Recursive descends into subdirectories when set.
	Recursive bool
	// Includes, if non-empty, selects only files whose basename
	// matches at least one glob. Excludes always wins over Includes.
	Includes []string
	Excludes []string
	// Op chooses BatchEncrypt or BatchDecrypt.
	Op             BatchOp
	ForceOverwrite bool
	Password       []byte
	Level          SecurityLevel
	Keyfile        []byte
	// Workers bounds how many files are processed concurrently; <= 1
	// processes the batch sequentially. A single file is never split
	// across workers.
	Workers  int
	Progress ProgressSink
	Logger   Logger
}

// RunBatch walks Root and applies Encrypt or Decrypt to every
// selected file, never letting one file's failure abort the run. Only
// an enumeration-level error (Root missing or unreadable) is
// returned; per-file failures appear in the returned BatchReport.
func RunBatch(ctx context.Context, req BatchRequest) (BatchReport, error) {
	return batch.Run(ctx, batch.Params{
		Root:           req.Root,
		Recursive:      req.Recursive,
		Includes:       req.Includes,
		Excludes:       req.Excludes,
		Op:             req.Op,
		ForceOverwrite: req.ForceOverwrite,
		Password:       req.Password,
		Level:          req.Level,
		Keyfile:        req.Keyfile,
		Workers:        req.Workers,
		Progress:       req.Progress,
		Logger:         req.Logger,
	})
}
