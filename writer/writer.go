// MIT License
//
// Copyright (c) 2023 Lack
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package writer persists generated files into the output directories of a
// project, routing every file by its category.
package writer

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
	log "github.com/vine-io/vine/lib/logger"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// StaticResourcePath is the prefix of static HTTP resources below the
// generated resources directory.
const StaticResourcePath = "META-INF/resources"

// Dirs are the output directories files are routed to.
type Dirs struct {
	Classes   string
	Sources   string
	Resources string
}

// Stats counts the writes of a Writer.
type Stats struct {
	Files int64
	Bytes int64
}

type Writer struct {
	dirs Dirs
	pool *ants.Pool

	files *atomic.Int64
	bytes *atomic.Int64
}

// New returns a writer with size parallel workers.
func New(dirs Dirs, size int) (*Writer, error) {
	if size <= 0 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, errors.Wrap(err, "create write pool")
	}

	w := &Writer{
		dirs:  dirs,
		pool:  pool,
		files: atomic.NewInt64(0),
		bytes: atomic.NewInt64(0),
	}
	return w, nil
}

// Target returns the absolute destination of file.
func (w *Writer) Target(file *api.GeneratedFile) (string, error) {
	var base string
	rel := file.Path
	switch file.Category() {
	case api.CategorySource:
		base = w.dirs.Sources
	case api.CategoryCompiledClass, api.CategoryInternalResource:
		base = w.dirs.Classes
	case api.CategoryStaticHTTPResource:
		base = w.dirs.Resources
		rel = filepath.ToSlash(filepath.Join(StaticResourcePath, rel))
	default:
		return "", api.BadRequest("%s: unknown category %v", file.Path, file.Category())
	}
	if base == "" {
		return "", api.PreconditionFailed("no output directory for %s files", file.Category())
	}
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", api.BadRequest("%s escapes the output directory", file.Path)
	}
	return filepath.Join(base, filepath.FromSlash(rel)), nil
}

// Write persists one file.
func (w *Writer) Write(file *api.GeneratedFile) error {
	target, err := w.Target(file)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "create directory of %s", file.Path)
	}
	if err = os.WriteFile(target, file.Contents, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", file.Path)
	}

	w.files.Inc()
	w.bytes.Add(int64(len(file.Contents)))
	log.Debugf("write %s -> %s", file.Type, target)
	return nil
}

// WriteAll persists files in parallel and returns once every write ended.
// Failures are combined into one error.
func (w *Writer) WriteAll(files []*api.GeneratedFile) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for i := range files {
		file := files[i]
		wg.Add(1)
		err := w.pool.Submit(func() {
			defer wg.Done()
			if err := w.Write(file); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			errs = multierr.Append(errs, errors.Wrapf(err, "schedule %s", file.Path))
			mu.Unlock()
		}
	}
	wg.Wait()

	return errs
}

func (w *Writer) Stats() Stats {
	return Stats{Files: w.files.Load(), Bytes: w.bytes.Load()}
}

// Release stops the workers of the writer.
func (w *Writer) Release() {
	w.pool.Release()
}
