// Package archive stores collected captures in a msgpack file so a
// collection can be grouped again later with `st -f`.
package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"st/internal/collect"
)

// Magic prefixes every archive file.
var Magic = []byte("STCAP\x00")

// Current schema version - increment when Bundle format changes
const schemaVersion uint16 = 1

// ErrSchema is returned for archives written by an incompatible version.
var ErrSchema = errors.New("unsupported capture archive schema")

// Bundle is the content of an archive.
type Bundle struct {
	Schema   uint16            `msgpack:"schema"`
	Tool     string            `msgpack:"tool"`
	Format   string            `msgpack:"format"`
	Created  time.Time         `msgpack:"created"`
	Interval time.Duration     `msgpack:"interval,omitempty"`
	Count    int               `msgpack:"count,omitempty"`
	Captures []collect.Capture `msgpack:"captures"`
}

// FromResult builds a bundle of a finished collection.
func FromResult(tool collect.Tool, res *collect.Result) *Bundle {
	b := &Bundle{
		Schema:   schemaVersion,
		Tool:     tool.Binary(),
		Format:   tool.Format(),
		Created:  time.Now().UTC(),
		Captures: res.Captures,
	}
	if res.Sampling != nil {
		b.Interval = res.Sampling.Interval
		b.Count = res.Sampling.Count
	}
	return b
}

// Sampling returns the sampling the bundle was collected with, or nil.
func (b *Bundle) Sampling() *collect.Sampling {
	if b.Count <= 1 {
		return nil
	}
	return &collect.Sampling{Interval: b.Interval, Count: b.Count}
}

// Text joins the capture texts with "\n".
func (b *Bundle) Text() string {
	texts := make([]string, 0, len(b.Captures))
	for _, c := range b.Captures {
		texts = append(texts, c.Text)
	}
	return strings.Join(texts, "\n")
}

// IsArchive reports whether data starts with Magic.
func IsArchive(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// Encode writes b to w.
func Encode(w io.Writer, b *Bundle) error {
	if _, err := w.Write(Magic); err != nil {
		return err
	}
	if b.Schema == 0 {
		b.Schema = schemaVersion
	}
	return msgpack.NewEncoder(w).Encode(b)
}

// Decode reads a bundle written by Encode.
func Decode(r io.Reader) (*Bundle, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(Magic))
	if err != nil || !IsArchive(head) {
		return nil, errors.New("not a capture archive")
	}
	if _, err := br.Discard(len(Magic)); err != nil {
		return nil, err
	}
	var b Bundle
	if err := msgpack.NewDecoder(br).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode capture archive: %w", err)
	}
	if b.Schema != schemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchema, b.Schema)
	}
	return &b, nil
}

// Write stores b at path, replacing any existing file atomically.
func Write(path string, b *Bundle) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".st-capture-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name()) //nolint:errcheck
		}
	}()

	w := bufio.NewWriter(f)
	if err = Encode(w, b); err != nil {
		_ = f.Close() //nolint:errcheck
		return err
	}
	if err = w.Flush(); err != nil {
		_ = f.Close() //nolint:errcheck
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Read loads the archive at path.
func Read(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
