/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

package container_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/feroxcrypt/ferox/internal/container"
	"github.com/feroxcrypt/ferox/internal/ferrors"
)

// buildHeaderOnlyContainer assembles a syntactically valid header
// (filename_length, filename, salt, iv, kdf params) followed by
// ciphertextLen bytes of arbitrary ciphertext and a TagSize tag, so it
// is long enough to pass the container's length checks without
// needing a genuine HMAC tag. Used to exercise header-level rejection
// paths that trigger before tag verification.
func buildHeaderOnlyContainer(name string, memoryKiB, timeCost, parallelism uint32, ciphertextLen int) []byte {
	var buf bytes.Buffer
	fnLen := make([]byte, container.FilenameLenSize)
	binary.LittleEndian.PutUint16(fnLen, uint16(len(name)))
	buf.Write(fnLen)
	buf.WriteString(name)
	buf.Write(make([]byte, container.SaltSize))
	buf.Write(make([]byte, container.IVSize))

	kdf := make([]byte, 3*container.KDFFieldSize)
	binary.LittleEndian.PutUint32(kdf[0:4], memoryKiB)
	binary.LittleEndian.PutUint32(kdf[4:8], timeCost)
	binary.LittleEndian.PutUint32(kdf[8:12], parallelism)
	buf.Write(kdf)

	buf.Write(make([]byte, ciphertextLen))
	buf.Write(make([]byte, container.TagSize))
	return buf.Bytes()
}

func writeTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func encryptDecryptRoundTrip(t *testing.T, plaintext []byte, name string, password []byte, level container.SecurityLevel, keyfile []byte) {
	t.Helper()
	dir := t.TempDir()
	src := writeTempFile(t, dir, name, plaintext)
	ctx := context.Background()

	if err := container.Encrypt(ctx, container.EncryptParams{
		SourcePath: src,
		Password:   password,
		Level:      level,
		Keyfile:    keyfile,
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	if err := container.Decrypt(ctx, container.DecryptParams{
		ContainerPath: src + container.Extension,
		OutputDir:     outDir,
		Password:      password,
		Keyfile:       keyfile,
	}); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, name))
	if err != nil {
		t.Fatalf("reading decrypted output: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round-tripped content mismatch: got %d bytes, want %d bytes", len(got), len(plaintext))
	}
}

// S1: small text file, no keyfile.
func TestRoundTripSmallFile(t *testing.T) {
	encryptDecryptRoundTrip(t, []byte("hello\n"), "note.txt", []byte("pw"), container.Moderate, nil)
}

// S2: empty file.
func TestRoundTripEmptyFile(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "empty.bin", nil)
	ctx := context.Background()

	if err := container.Encrypt(ctx, container.EncryptParams{
		SourcePath: src,
		Password:   []byte("x"),
		Level:      container.Interactive,
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	info, err := os.Stat(src + container.Extension)
	if err != nil {
		t.Fatalf("stat container: %v", err)
	}
	wantHeaderLen := container.FilenameLenSize + len("empty.bin") + container.SaltSize + container.IVSize + 3*container.KDFFieldSize
	if info.Size() != int64(wantHeaderLen+container.TagSize) {
		t.Fatalf("container size = %d, want %d", info.Size(), wantHeaderLen+container.TagSize)
	}

	outDir := filepath.Join(dir, "out")
	os.Mkdir(outDir, 0o700)
	if err := container.Decrypt(ctx, container.DecryptParams{
		ContainerPath: src + container.Extension,
		OutputDir:     outDir,
		Password:      []byte("x"),
	}); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "empty.bin"))
	if err != nil {
		t.Fatalf("reading decrypted output: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("decrypted output has %d bytes, want 0", len(got))
	}
}

func TestRoundTripWithKeyfile(t *testing.T) {
	keyfile := bytes.Repeat([]byte{0x5a}, 64)
	encryptDecryptRoundTrip(t, []byte("secret payload"), "doc.bin", []byte("p"), container.Interactive, keyfile)
}

// S4: keyfile mismatch rejects, correct keyfile succeeds.
func TestKeyfileMismatchRejected(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "doc.bin", []byte("secret payload"))
	ctx := context.Background()

	k1 := bytes.Repeat([]byte{0x01}, 64)
	k2 := bytes.Repeat([]byte{0x02}, 64)
	password := []byte("p")

	if err := container.Encrypt(ctx, container.EncryptParams{
		SourcePath: src,
		Password:   password,
		Level:      container.Interactive,
		Keyfile:    k1,
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	os.Mkdir(outDir, 0o700)

	err := container.Decrypt(ctx, container.DecryptParams{
		ContainerPath: src + container.Extension,
		OutputDir:     outDir,
		Password:      password,
		Keyfile:       k2,
	})
	if ferrors.KindOf(err) != ferrors.AuthenticationFailed {
		t.Fatalf("decrypt with wrong keyfile kind = %v, want AuthenticationFailed", ferrors.KindOf(err))
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "doc.bin")); !os.IsNotExist(statErr) {
		t.Fatalf("decrypt with wrong keyfile must not leave output on disk")
	}

	if err := container.Decrypt(ctx, container.DecryptParams{
		ContainerPath: src + container.Extension,
		OutputDir:     outDir,
		Password:      password,
		Keyfile:       k1,
	}); err != nil {
		t.Fatalf("decrypt with correct keyfile should succeed: %v", err)
	}
}

// Property 2: wrong password rejects and leaves no output.
func TestWrongPasswordRejected(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "note.txt", []byte("hello\n"))
	ctx := context.Background()

	if err := container.Encrypt(ctx, container.EncryptParams{
		SourcePath: src,
		Password:   []byte("correct"),
		Level:      container.Interactive,
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	os.Mkdir(outDir, 0o700)

	err := container.Decrypt(ctx, container.DecryptParams{
		ContainerPath: src + container.Extension,
		OutputDir:     outDir,
		Password:      []byte("wrong"),
	})
	if ferrors.KindOf(err) != ferrors.AuthenticationFailed {
		t.Fatalf("kind = %v, want AuthenticationFailed", ferrors.KindOf(err))
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "note.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("wrong password must not leave output on disk")
	}
}

// S3 / property 4: flipping a bit anywhere causes AuthenticationFailed,
// and never leaves a plaintext file behind.
func TestTamperDetection(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "data.bin", bytes.Repeat([]byte{0xAA}, 4096))
	ctx := context.Background()
	password := []byte("correct horse battery staple")

	if err := container.Encrypt(ctx, container.EncryptParams{
		SourcePath: src,
		Password:   password,
		Level:      container.Interactive,
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	containerPath := src + container.Extension

	original, err := os.ReadFile(containerPath)
	if err != nil {
		t.Fatalf("reading container: %v", err)
	}

	offsets := []int{0, len(original) / 2, len(original) - 1}
	for _, off := range offsets {
		tampered := append([]byte(nil), original...)
		tampered[off] ^= 0x01
		if err := os.WriteFile(containerPath, tampered, 0o600); err != nil {
			t.Fatalf("writing tampered container: %v", err)
		}

		outDir := filepath.Join(dir, "out")
		os.RemoveAll(outDir)
		os.Mkdir(outDir, 0o700)

		err := container.Decrypt(ctx, container.DecryptParams{
			ContainerPath: containerPath,
			OutputDir:     outDir,
			Password:      password,
		})
		kind := ferrors.KindOf(err)
		if kind != ferrors.AuthenticationFailed && kind != ferrors.MalformedContainer {
			t.Fatalf("tamper at offset %d: kind = %v, want AuthenticationFailed or MalformedContainer", off, kind)
		}
		if _, statErr := os.Stat(filepath.Join(outDir, "data.bin")); !os.IsNotExist(statErr) {
			t.Fatalf("tamper at offset %d left a plaintext output on disk", off)
		}
	}

	if err := os.WriteFile(containerPath, original, 0o600); err != nil {
		t.Fatalf("restoring container: %v", err)
	}
}

// Property 5: truncating any suffix is detected.
func TestTruncationDetection(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "data.bin", bytes.Repeat([]byte{0x42}, 4096))
	ctx := context.Background()
	password := []byte("pw")

	if err := container.Encrypt(ctx, container.EncryptParams{
		SourcePath: src,
		Password:   password,
		Level:      container.Interactive,
	}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	containerPath := src + container.Extension

	original, err := os.ReadFile(containerPath)
	if err != nil {
		t.Fatalf("reading container: %v", err)
	}

	for _, cut := range []int{1, len(original) / 2, len(original) - 1} {
		truncated := original[:len(original)-cut]
		if err := os.WriteFile(containerPath, truncated, 0o600); err != nil {
			t.Fatalf("writing truncated container: %v", err)
		}

		outDir := filepath.Join(dir, "out")
		os.RemoveAll(outDir)
		os.Mkdir(outDir, 0o700)

		err := container.Decrypt(ctx, container.DecryptParams{
			ContainerPath: containerPath,
			OutputDir:     outDir,
			Password:      password,
		})
		kind := ferrors.KindOf(err)
		if kind != ferrors.AuthenticationFailed && kind != ferrors.MalformedContainer {
			t.Fatalf("truncation by %d bytes: kind = %v, want AuthenticationFailed or MalformedContainer", cut, kind)
		}
	}
}

// Property 6: salts and IVs are pairwise distinct across many encryptions.
func TestNonceUniqueness(t *testing.T) {
	const n = 64
	dir := t.TempDir()
	ctx := context.Background()
	plaintext := []byte("same plaintext every time")

	salts := make(map[string]bool, n)
	ivs := make(map[string]bool, n)
	ciphertexts := make(map[string]bool, n)

	for i := 0; i < n; i++ {
		name := "f.bin"
		src := writeTempFile(t, dir, name, plaintext)
		if err := container.Encrypt(ctx, container.EncryptParams{
			SourcePath:     src,
			Password:       []byte("same password"),
			Level:          container.Interactive,
			ForceOverwrite: true,
		}); err != nil {
			t.Fatalf("Encrypt #%d failed: %v", i, err)
		}

		raw, err := os.ReadFile(src + container.Extension)
		if err != nil {
			t.Fatalf("reading container #%d: %v", i, err)
		}

		headerFixedStart := container.FilenameLenSize + len(name)
		salt := string(raw[headerFixedStart : headerFixedStart+container.SaltSize])
		iv := string(raw[headerFixedStart+container.SaltSize : headerFixedStart+container.SaltSize+container.IVSize])

		if salts[salt] {
			t.Fatalf("salt collision at iteration %d", i)
		}
		if ivs[iv] {
			t.Fatalf("iv collision at iteration %d", i)
		}
		salts[salt] = true
		ivs[iv] = true
		ciphertexts[string(raw)] = true

		os.Remove(src)
		os.Remove(src + container.Extension)
	}

	if len(ciphertexts) != n {
		t.Fatalf("got %d distinct containers, want %d", len(ciphertexts), n)
	}
}

func TestInterruptDuringEncryptLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "big.bin", bytes.Repeat([]byte{0x11}, 8*1024*1024))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := container.Encrypt(ctx, container.EncryptParams{
		SourcePath: src,
		Password:   []byte("pw"),
		Level:      container.Interactive,
	})
	if !errors.Is(err, context.Canceled) && ferrors.KindOf(err) != ferrors.Interrupted {
		t.Fatalf("expected an Interrupted error, got %v", err)
	}
	if _, statErr := os.Stat(src + container.Extension); !os.IsNotExist(statErr) {
		t.Fatalf("cancelled encrypt left an output file on disk")
	}
	if _, statErr := os.Stat(src); statErr != nil {
		t.Fatalf("cancelled encrypt must not modify the source file: %v", statErr)
	}
}

// Property 7 (partial): streaming works at sizes spanning BUFFER boundaries.
func TestStreamingAtBufferBoundaries(t *testing.T) {
	sizes := []int{0, 1, container.BufferSize - 1, container.BufferSize, container.BufferSize + 1}
	if testing.Short() {
		sizes = []int{0, 1, container.BufferSize + 1}
	}

	for _, size := range sizes {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i)
		}
		encryptDecryptRoundTrip(t, data, "boundary.bin", []byte("pw"), container.Interactive, nil)
	}
}

func TestEncryptRefusesAlreadyEncryptedSuffix(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "already.feroxcrypt", []byte("x"))

	err := container.Encrypt(context.Background(), container.EncryptParams{
		SourcePath: src,
		Password:   []byte("pw"),
		Level:      container.Interactive,
	})
	if ferrors.KindOf(err) != ferrors.AlreadyEncrypted {
		t.Fatalf("kind = %v, want AlreadyEncrypted", ferrors.KindOf(err))
	}
}

func TestEncryptRefusesExistingOutputWithoutForce(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "note.txt", []byte("hello"))
	writeTempFile(t, dir, "note.txt"+container.Extension, []byte("existing"))

	err := container.Encrypt(context.Background(), container.EncryptParams{
		SourcePath: src,
		Password:   []byte("pw"),
		Level:      container.Interactive,
	})
	if ferrors.KindOf(err) != ferrors.OutputExists {
		t.Fatalf("kind = %v, want OutputExists", ferrors.KindOf(err))
	}
}

func TestEncryptRejectsMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := container.Encrypt(context.Background(), container.EncryptParams{
		SourcePath: filepath.Join(dir, "does-not-exist.txt"),
		Password:   []byte("pw"),
		Level:      container.Interactive,
	})
	if ferrors.KindOf(err) != ferrors.InputNotFound {
		t.Fatalf("kind = %v, want InputNotFound", ferrors.KindOf(err))
	}
}

func TestDecryptRejectsTooShortContainer(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "short.feroxcrypt", []byte("too short"))

	err := container.Decrypt(context.Background(), container.DecryptParams{
		ContainerPath: path,
		Password:      []byte("pw"),
	})
	if ferrors.KindOf(err) != ferrors.MalformedContainer {
		t.Fatalf("kind = %v, want MalformedContainer", ferrors.KindOf(err))
	}
}

func TestDecryptRejectsSubFloorHeaderKDFParams(t *testing.T) {
	dir := t.TempDir()
	raw := buildHeaderOnlyContainer("note.txt", 4, 1, 1, 0) // 4 KiB is below Argon2's 8 KiB floor
	path := writeTempFile(t, dir, "note.txt"+container.Extension, raw)

	err := container.Decrypt(context.Background(), container.DecryptParams{
		ContainerPath: path,
		Password:      []byte("pw"),
	})
	if ferrors.KindOf(err) != ferrors.MalformedContainer {
		t.Fatalf("kind = %v, want MalformedContainer (not InternalCryptoError)", ferrors.KindOf(err))
	}
}

func TestDecryptRejectsOversizedHeaderParallelism(t *testing.T) {
	dir := t.TempDir()
	raw := buildHeaderOnlyContainer("note.txt", 19456, 2, 256, 0) // 256 overflows the uint8 KDFParams field
	path := writeTempFile(t, dir, "note.txt"+container.Extension, raw)

	err := container.Decrypt(context.Background(), container.DecryptParams{
		ContainerPath: path,
		Password:      []byte("pw"),
	})
	if ferrors.KindOf(err) != ferrors.MalformedContainer {
		t.Fatalf("kind = %v, want MalformedContainer", ferrors.KindOf(err))
	}
}
