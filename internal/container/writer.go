/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// writer.go: streaming encrypt-then-MAC container assembly.
package container

import (
	"bufio"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/feroxcrypt/ferox/internal/ferrors"
	"github.com/feroxcrypt/ferox/internal/guard"
	"github.com/feroxcrypt/ferox/internal/keyfile"
	"github.com/feroxcrypt/ferox/internal/progress"
	"github.com/feroxcrypt/ferox/secure"
)

// EncryptParams are the inputs to Encrypt. Guard, Progress, and
// Logger are optional; a nil Guard simply means no interrupt
// coordination for this call, a nil Progress/Logger becomes a no-op.
type EncryptParams struct {
	SourcePath     string
	ForceOverwrite bool
	Password       []byte
	Level          SecurityLevel
	Keyfile        []byte
	Guard          *guard.Guard
	Progress       progress.Sink
	Logger         Logger
}

// Encrypt implements the Container Writer: it validates the source,
// samples fresh salt/IV, derives keys, and streams header, AES-256-CTR
// ciphertext, and an HMAC-SHA256 tag to source+".feroxcrypt". On any
// failure after the output file is created, the partial output is
// removed before returning.
func Encrypt(ctx context.Context, p EncryptParams) error {
	logger := p.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	sink := p.Progress
	if sink == nil {
		sink = progress.Nop{}
	}

	const op = "encrypt"
	src := p.SourcePath

	if strings.HasSuffix(src, Extension) {
		return ferrors.New(ferrors.AlreadyEncrypted, op, src, fmt.Errorf("source already ends in %s", Extension))
	}

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

	basename := filepath.Base(src)
	if len(basename) > MaxFilenameLength {
		return ferrors.New(ferrors.FilenameTooLong, op, src, fmt.Errorf("basename is %d bytes, max %d", len(basename), MaxFilenameLength))
	}

	dst := src + Extension
	if !p.ForceOverwrite {
		if _, statErr := os.Stat(dst); statErr == nil {
			return ferrors.New(ferrors.OutputExists, op, dst, fmt.Errorf("output already exists"))
		} else if !os.IsNotExist(statErr) {
			return ferrors.New(ferrors.IoError, op, dst, statErr)
		}
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return ferrors.New(ferrors.InternalCryptoError, op, src, err)
	}
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return ferrors.New(ferrors.InternalCryptoError, op, src, err)
	}

	params, err := p.Level.Params()
	if err != nil {
		return ferrors.New(ferrors.InternalCryptoError, op, src, err)
	}

	kdfPassword := p.Password
	if p.Keyfile != nil {
		mixed := keyfile.MixPassword(p.Keyfile, p.Password)
		defer secure.Zero(mixed)
		kdfPassword = mixed
	}

	encKey, macKey, err := DeriveKeys(kdfPassword, salt, params)
	if err != nil {
		return err
	}
	defer encKey.Destroy()
	defer macKey.Destroy()

	block, err := aes.NewCipher(encKey.Data())
	if err != nil {
		return ferrors.New(ferrors.InternalCryptoError, op, src, err)
	}
	stream := cipher.NewCTR(block, iv)
	mac := hmac.New(sha256.New, macKey.Data())

	srcFile, err := os.Open(src) // #nosec G304 -- caller-supplied path, file encryption is this function's purpose
	if err != nil {
		return ferrors.New(ferrors.IoError, op, src, err)
	}
	defer srcFile.Close()

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
	mw := io.MultiWriter(w, mac)

	fnLen := make([]byte, FilenameLenSize)
	binary.LittleEndian.PutUint16(fnLen, uint16(len(basename)))
	for _, chunk := range [][]byte{fnLen, []byte(basename), salt, iv, encodeKDFParams(params)} {
		if _, err := mw.Write(chunk); err != nil {
			return ferrors.New(ferrors.IoError, op, dst, err)
		}
	}

	buf := make([]byte, BufferSize)
	defer secure.Zero(buf)
	var total int64
	for {
		select {
		case <-ctx.Done():
			return ferrors.New(ferrors.Interrupted, op, src, ctx.Err())
		default:
		}

		n, rerr := srcFile.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			stream.XORKeyStream(chunk, chunk)
			if _, werr := mw.Write(chunk); werr != nil {
				return ferrors.New(ferrors.IoError, op, dst, werr)
			}
			total += int64(n)
			sink.OnBytes(int64(n))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return ferrors.New(ferrors.IoError, op, src, rerr)
		}
	}

	tag := mac.Sum(nil)
	if _, err := w.Write(tag); err != nil {
		return ferrors.New(ferrors.IoError, op, dst, err)
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
	logger.Info("encrypted file", "source", src, "destination", dst, "bytes", total)
	return nil
}

func encodeKDFParams(p KDFParams) []byte {
	b := make([]byte, 3*KDFFieldSize)
	binary.LittleEndian.PutUint32(b[0:4], p.MemoryKiB)
	binary.LittleEndian.PutUint32(b[4:8], p.TimeCost)
	binary.LittleEndian.PutUint32(b[8:12], uint32(p.Parallelism))
	return b
}
