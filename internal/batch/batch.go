/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// Package batch walks a directory tree and applies the container
// engine to every selected file, aggregating outcomes into a report
// instead of letting one bad file abort the run.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/feroxcrypt/ferox/internal/container"
	"github.com/feroxcrypt/ferox/internal/ferrors"
	"github.com/feroxcrypt/ferox/internal/guard"
	"github.com/feroxcrypt/ferox/internal/progress"
)

// Op selects which container operation a batch run applies.
type Op int

const (
	OpEncrypt Op = iota
	OpDecrypt
)

// Failure records one file that did not complete successfully.
type Failure struct {
	Path   string
	Reason string
}

// Report is the aggregate outcome of a batch run.
type Report struct {
	Processed int
	Succeeded int
	Skipped   int
	Failed    int
	Failures  []Failure
}

// Params configures a batch run. Workers <= 1 processes files
// sequentially; Workers > 1 runs that many files concurrently, each
// with its own Interrupt Guard slot, never splitting one file across
// workers.
type Params struct {
	Root           string
	Recursive      bool
	Includes       []string
	Excludes       []string
	Op             Op
	ForceOverwrite bool
	Password       []byte
	Level          container.SecurityLevel
	Keyfile        []byte
	Workers        int
	Progress       progress.Sink
	Logger         container.Logger
}

// Run walks Root, selects files per the include/exclude rules, and
// invokes the container engine on each. An enumeration-level failure
// (root missing, permission denied at the top) is fatal and returned
// as an error; a single file's failure is recorded in the report and
// the walk continues.
func Run(ctx context.Context, p Params) (Report, error) {
	var report Report

	logger := p.Logger
	if logger == nil {
		logger = container.NopLogger{}
	}

	paths, err := collect(p.Root, p.Recursive)
	if err != nil {
		return report, ferrors.New(ferrors.IoError, "batch", p.Root, err)
	}

	type job struct {
		path string
	}
	var selected []job
	for _, path := range paths {
		if !selectedFor(path, p) {
			report.Skipped++
			continue
		}
		selected = append(selected, job{path: path})
	}

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]*Failure, len(selected))
	var processed, succeeded int32Counter
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, j := range selected {
		i, j := i, j
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			processed.add(1)
			g := guard.New()
			if err := process(ctx, p, j.path, g); err != nil {
				results[i] = &Failure{Path: j.path, Reason: ferrors.Sanitize(err).Error()}
				logger.Error("batch item failed", err, "path", j.path)
				return
			}
			succeeded.add(1)
		}()
	}
	wg.Wait()

	report.Processed = int(processed.value())
	report.Succeeded = int(succeeded.value())
	for _, f := range results {
		if f != nil {
			report.Failures = append(report.Failures, *f)
		}
	}
	report.Failed = len(report.Failures)

	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].Path < report.Failures[j].Path })
	return report, nil
}

func process(ctx context.Context, p Params, path string, g *guard.Guard) error {
	switch p.Op {
	case OpEncrypt:
		return container.Encrypt(ctx, container.EncryptParams{
			SourcePath:     path,
			ForceOverwrite: p.ForceOverwrite,
			Password:       p.Password,
			Level:          p.Level,
			Keyfile:        p.Keyfile,
			Guard:          g,
			Progress:       p.Progress,
			Logger:         p.Logger,
		})
	case OpDecrypt:
		return container.Decrypt(ctx, container.DecryptParams{
			ContainerPath:  path,
			ForceOverwrite: p.ForceOverwrite,
			Password:       p.Password,
			Keyfile:        p.Keyfile,
			Guard:          g,
			Progress:       p.Progress,
			Logger:         p.Logger,
		})
	default:
		return fmt.Errorf("unknown batch op %d", p.Op)
	}
}

// collect enumerates regular files under root, recursing iff
// recursive is set.
func collect(root string, recursive bool) ([]string, error) {
	var out []string
	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				out = append(out, filepath.Join(root, e.Name()))
			}
		}
		return out, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// selectedFor applies the include/exclude glob rules (basename-only)
// and the already-encrypted/not-encrypted skip rules.
func selectedFor(path string, p Params) bool {
	base := filepath.Base(path)

	if p.Op == OpEncrypt && strings.HasSuffix(base, container.Extension) {
		return false
	}
	if p.Op == OpDecrypt && !strings.HasSuffix(base, container.Extension) {
		return false
	}

	if len(p.Includes) > 0 {
		matched := false
		for _, glob := range p.Includes {
			if ok, _ := filepath.Match(glob, base); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, glob := range p.Excludes {
		if ok, _ := filepath.Match(glob, base); ok {
			return false
		}
	}

	return true
}

// int32Counter is a minimal atomic-ish counter guarded by a mutex; the
// batch driver's job counts are small and infrequent enough that a
// mutex costs nothing measurable next to Argon2id.
type int32Counter struct {
	mu sync.Mutex
	n  int64
}

func (c *int32Counter) add(delta int64) {
	c.mu.Lock()
	c.n += delta
	c.mu.Unlock()
}

func (c *int32Counter) value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
