/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// reader.go: streamed-with-rollback container verification and decrypt.
package container

import (
	"bufio"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/feroxcrypt/ferox/internal/ferrors"
	"github.com/feroxcrypt/ferox/internal/guard"
	"github.com/feroxcrypt/ferox/internal/keyfile"
	"github.com/feroxcrypt/ferox/internal/progress"
	"github.com/feroxcrypt/ferox/secure"
)

// DecryptParams are the inputs to Decrypt. OutputDir, Guard, Progress,
// and Logger are optional; an empty OutputDir writes next to the
// container.
type DecryptParams struct {
	ContainerPath  string
	OutputDir      string
	ForceOverwrite bool
	Password       []byte
	Keyfile        []byte
	Guard          *guard.Guard
	Progress       progress.Sink
	Logger         Logger
}

// Decrypt implements the Container Reader using a streamed-with-
// rollback strategy: plaintext is written as it is produced while the
// HMAC accumulates over header and ciphertext, and the 32-byte tag is
// checked in constant time only once the whole file has been read. A
// tag mismatch deletes the output and reports AuthenticationFailed
// without distinguishing a wrong password from a tampered file.
func Decrypt(ctx context.Context, p DecryptParams) error {
	logger := p.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	sink := p.Progress
	if sink == nil {
		sink = progress.Nop{}
	}

	const op = "decrypt"
	src := p.ContainerPath

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return ferrors.New(ferrors.InputNotFound, op, src, err)
		}
		return ferrors.New(ferrors.IoError, op, src, err)
	}
	if !info.Mode().IsRegular() {
		return ferrors.New(ferrors.InputNotRegularFile, op, src, fmt.Errorf("not a regular file"))
	}
	if !strings.HasSuffix(src, Extension) {
		logger.Debug("decrypting file without the expected extension", "path", src, "extension", Extension)
	}

	inFile, err := os.Open(src) // #nosec G304 -- caller-supplied path, decryption is this function's purpose
	if err != nil {
		return ferrors.New(ferrors.IoError, op, src, err)
	}
	defer inFile.Close()

	header, err := readHeader(inFile)
	if err != nil {
		return ferrors.New(ferrors.MalformedContainer, op, src, err)
	}

	if err := validateFilename(header.filename); err != nil {
		return ferrors.New(ferrors.MalformedContainer, op, src, err)
	}
	if header.params.MemoryKiB > MaxHeaderKDFMemoryKiB || header.params.TimeCost > MaxHeaderKDFTimeCost {
		return ferrors.New(ferrors.MalformedContainer, op, src, fmt.Errorf("kdf parameters exceed sanity ceiling"))
	}
	// Below Argon2's own floor, DeriveKeys would reject these params as
	// InternalCryptoError; on the decrypt path they come from untrusted
	// header bytes, so the failure is a malformed container, not an
	// internal crypto error.
	if err := ValidateKDFParams(header.params); err != nil {
		return ferrors.New(ferrors.MalformedContainer, op, src, err)
	}

	ciphertextLen := info.Size() - int64(header.headerLen) - TagSize
	if ciphertextLen < 0 {
		return ferrors.New(ferrors.MalformedContainer, op, src, fmt.Errorf("container shorter than header + tag"))
	}

	outDir := p.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(src)
	}
	dst := filepath.Join(outDir, header.filename)
	if !p.ForceOverwrite {
		if _, statErr := os.Stat(dst); statErr == nil {
			return ferrors.New(ferrors.OutputExists, op, dst, fmt.Errorf("output already exists"))
		} else if !os.IsNotExist(statErr) {
			return ferrors.New(ferrors.IoError, op, dst, statErr)
		}
	}

	kdfPassword := p.Password
	if p.Keyfile != nil {
		mixed := keyfile.MixPassword(p.Keyfile, p.Password)
		defer secure.Zero(mixed)
		kdfPassword = mixed
	}

	encKey, macKey, err := DeriveKeys(kdfPassword, header.salt, header.params)
	if err != nil {
		return err
	}
	defer encKey.Destroy()
	defer macKey.Destroy()

	block, err := aes.NewCipher(encKey.Data())
	if err != nil {
		return ferrors.New(ferrors.InternalCryptoError, op, src, err)
	}
	stream := cipher.NewCTR(block, header.iv)
	mac := hmac.New(sha256.New, macKey.Data())
	mac.Write(header.raw)

	if p.Guard != nil {
		p.Guard.Arm(dst)
	}
	outFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		if p.Guard != nil {
			p.Guard.Disarm()
		}
		return ferrors.New(ferrors.IoError, op, dst, err)
	}

	succeeded := false
	defer func() {
		if succeeded {
			return
		}
		outFile.Close()
		if p.Guard != nil {
			p.Guard.Cleanup()
		} else {
			_ = os.Remove(dst)
		}
	}()

	w := bufio.NewWriterSize(outFile, BufferSize)
	buf := make([]byte, BufferSize)
	defer secure.Zero(buf)
	var remaining = ciphertextLen
	var total int64

	for remaining > 0 {
		select {
		case <-ctx.Done():
			return ferrors.New(ferrors.Interrupted, op, src, ctx.Err())
		default:
		}

		want := int64(len(buf))
		if remaining < want {
			want = remaining
		}
		chunk := buf[:want]
		if _, err := io.ReadFull(inFile, chunk); err != nil {
			return ferrors.New(ferrors.MalformedContainer, op, src, fmt.Errorf("truncated ciphertext: %w", err))
		}
		mac.Write(chunk)
		stream.XORKeyStream(chunk, chunk)
		if _, err := w.Write(chunk); err != nil {
			return ferrors.New(ferrors.IoError, op, dst, err)
		}
		remaining -= want
		total += want
		sink.OnBytes(want)
	}

	tag := make([]byte, TagSize)
	if _, err := io.ReadFull(inFile, tag); err != nil {
		return ferrors.New(ferrors.MalformedContainer, op, src, fmt.Errorf("truncated tag: %w", err))
	}
	expected := mac.Sum(nil)
	if !secure.SecureCompare(expected, tag) {
		return ferrors.New(ferrors.AuthenticationFailed, op, src, fmt.Errorf("tag mismatch"))
	}

	if err := w.Flush(); err != nil {
		return ferrors.New(ferrors.IoError, op, dst, err)
	}
	if err := outFile.Close(); err != nil {
		return ferrors.New(ferrors.IoError, op, dst, err)
	}

	succeeded = true
	if p.Guard != nil {
		p.Guard.Disarm()
	}
	sink.OnFinish(total)
	logger.Info("decrypted file", "source", src, "destination", dst, "bytes", total)
	return nil
}

type parsedHeader struct {
	filename  string
	salt      []byte
	iv        []byte
	params    KDFParams
	headerLen int
	raw       []byte // every header byte, in wire order, for HMAC replay
}

// readHeader parses the fixed-and-variable-length header fields and
// returns the raw bytes alongside the decoded values, so the caller
// can feed them into the HMAC in one call.
func readHeader(r io.Reader) (*parsedHeader, error) {
	var raw []byte

	fnLen := make([]byte, FilenameLenSize)
	if _, err := io.ReadFull(r, fnLen); err != nil {
		return nil, fmt.Errorf("reading filename_length: %w", err)
	}
	raw = append(raw, fnLen...)
	n := binary.LittleEndian.Uint16(fnLen)
	if n == 0 {
		return nil, fmt.Errorf("filename_length is zero")
	}

	name := make([]byte, n)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("reading original_filename: %w", err)
	}
	raw = append(raw, name...)

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, fmt.Errorf("reading salt: %w", err)
	}
	raw = append(raw, salt...)

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(r, iv); err != nil {
		return nil, fmt.Errorf("reading iv: %w", err)
	}
	raw = append(raw, iv...)

	kdfBytes := make([]byte, 3*KDFFieldSize)
	if _, err := io.ReadFull(r, kdfBytes); err != nil {
		return nil, fmt.Errorf("reading kdf parameters: %w", err)
	}
	raw = append(raw, kdfBytes...)

	parallelism := binary.LittleEndian.Uint32(kdfBytes[8:12])
	if parallelism > MaxHeaderKDFParallelism {
		return nil, fmt.Errorf("kdf parallelism %d exceeds sanity ceiling", parallelism)
	}

	params := KDFParams{
		MemoryKiB:   binary.LittleEndian.Uint32(kdfBytes[0:4]),
		TimeCost:    binary.LittleEndian.Uint32(kdfBytes[4:8]),
		Parallelism: uint8(parallelism),
	}

	return &parsedHeader{
		filename:  string(name),
		salt:      salt,
		iv:        iv,
		params:    params,
		headerLen: len(raw),
		raw:       raw,
	}, nil
}

// validateFilename enforces the invariant that original_filename is
// valid UTF-8 and carries no path separator, so a malicious header
// can't redirect output outside the destination directory.
func validateFilename(name string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("original_filename is not valid UTF-8")
	}
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("original_filename %q is not a usable name", name)
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, '\\') {
		return fmt.Errorf("original_filename contains a path separator")
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("original_filename is not a bare basename")
	}
	return nil
}
