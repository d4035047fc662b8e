/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// benchmark_test.go: performance benchmarks for the container engine.
package benchmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/feroxcrypt/ferox"
)

// Interactive, the cheapest level, is used throughout so that
// streaming throughput dominates the measurement rather than
// Argon2id's own cost.
const level = ferox.Interactive

func BenchmarkEncryptFile_1MB(b *testing.B)   { benchmarkEncryptFile(b, 1*1024*1024) }
func BenchmarkEncryptFile_10MB(b *testing.B)  { benchmarkEncryptFile(b, 10*1024*1024) }
func BenchmarkEncryptFile_100MB(b *testing.B) { benchmarkEncryptFile(b, 100*1024*1024) }

// BenchmarkEncryptFile_1GB targets <120s on a mid-range 2018-era CPU.
func BenchmarkEncryptFile_1GB(b *testing.B) { benchmarkEncryptFile(b, 1*1024*1024*1024) }

func BenchmarkDecryptFile_1MB(b *testing.B)   { benchmarkDecryptFile(b, 1*1024*1024) }
func BenchmarkDecryptFile_10MB(b *testing.B)  { benchmarkDecryptFile(b, 10*1024*1024) }
func BenchmarkDecryptFile_100MB(b *testing.B) { benchmarkDecryptFile(b, 100*1024*1024) }

func BenchmarkDecryptFile_1GB(b *testing.B) { benchmarkDecryptFile(b, 1*1024*1024*1024) }

func benchmarkEncryptFile(b *testing.B, size int64) {
	tmpDir := b.TempDir()

	srcFile := filepath.Join(tmpDir, "plaintext.bin")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 256)
	}
	if err := os.WriteFile(srcFile, data, 0600); err != nil {
		b.Fatalf("failed to create test file: %v", err)
	}

	password := []byte("benchmark password")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		encFile := filepath.Join(tmpDir, fmt.Sprintf("encrypted_%d.feroxcrypt", i))
		if err := ferox.Encrypt(ctx, ferox.EncryptRequest{
			SourcePath: srcFile,
			Password:   password,
			Level:      level,
		}); err != nil {
			b.Fatalf("encrypt failed: %v", err)
		}
		os.Rename(srcFile+".feroxcrypt", encFile)
	}
	b.SetBytes(size)
}

func benchmarkDecryptFile(b *testing.B, size int64) {
	tmpDir := b.TempDir()

	srcFile := filepath.Join(tmpDir, "plaintext.bin")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 256)
	}
	if err := os.WriteFile(srcFile, data, 0600); err != nil {
		b.Fatalf("failed to create test file: %v", err)
	}

	password := []byte("benchmark password")
	ctx := context.Background()

	if err := ferox.Encrypt(ctx, ferox.EncryptRequest{
		SourcePath: srcFile,
		Password:   password,
		Level:      level,
	}); err != nil {
		b.Fatalf("encrypt failed: %v", err)
	}
	encFile := srcFile + ".feroxcrypt"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		outDir := filepath.Join(tmpDir, fmt.Sprintf("out_%d", i))
		if err := os.Mkdir(outDir, 0700); err != nil {
			b.Fatalf("failed to create output dir: %v", err)
		}
		if err := ferox.Decrypt(ctx, ferox.DecryptRequest{
			ContainerPath: encFile,
			OutputDir:     outDir,
			Password:      password,
		}); err != nil {
			b.Fatalf("decrypt failed: %v", err)
		}
	}
	b.SetBytes(size)
}

// BenchmarkMemoryZero benchmarks the constant-time zeroization path
// used on every sensitive buffer.
func BenchmarkMemoryZero(b *testing.B) {
	data := make([]byte, 4096)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := range data {
			data[j] = byte(j % 256)
		}
		ferox.ZeroBytes(data)
	}
	b.SetBytes(4096)
}
