package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"st/internal/archive"
	"st/internal/collect"
)

// fileInput is the content of one -f argument.
type fileInput struct {
	source collect.TargetID
	text   string
	bundle *archive.Bundle // set when the file is a capture archive
	err    error
}

// readInputs reads every file concurrently and keeps argument order. "-"
// reads stdin. A capture archive contributes the joined text of its
// captures. Unreadable files are returned as failures; the error is a
// *collect.BatchError only when nothing could be read.
func readInputs(ctx context.Context, files []string, stdin io.Reader) ([]fileInput, []collect.Failure, error) {
	results := make([]fileInput, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = readInput(path, stdin)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	inputs := make([]fileInput, 0, len(results))
	var failures []collect.Failure
	for _, in := range results {
		if in.err != nil {
			failures = append(failures, collect.Failure{Target: in.source, Err: in.err})
			continue
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 && len(failures) > 0 {
		return nil, failures, &collect.BatchError{Failures: failures}
	}
	return inputs, failures, nil
}

func readInput(path string, stdin io.Reader) fileInput {
	var (
		data []byte
		err  error
	)
	in := fileInput{source: collect.TargetID(path)}
	if path == "-" {
		in.source = collect.StdinID
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		in.err = fmt.Errorf("failed to read %s: %w", in.source, err)
		return in
	}
	if archive.IsArchive(data) {
		b, err := archive.Decode(bytes.NewReader(data))
		if err != nil {
			in.err = fmt.Errorf("%s: %w", in.source, err)
			return in
		}
		in.bundle = b
		in.text = b.Text()
		return in
	}
	in.text = string(data)
	return in
}

// joinInputs joins the inputs with "\n" and returns the sampling of the
// first archive that recorded one.
func joinInputs(inputs []fileInput) (string, *collect.Sampling) {
	texts := make([]string, 0, len(inputs))
	var sampling *collect.Sampling
	for _, in := range inputs {
		texts = append(texts, in.text)
		if sampling == nil && in.bundle != nil {
			sampling = in.bundle.Sampling()
		}
	}
	return strings.Join(texts, "\n"), sampling
}
