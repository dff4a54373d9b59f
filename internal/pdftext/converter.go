package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"transferscan/internal/logger"
)

// Runner lets us stub the external pdftotext command in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		logger.CtxDebug(ctx, "Command failed: cmd=%s, stderr=%s", name, errb.String())
	}

	return out.Bytes(), errb.Bytes(), err
}

// Converter turns a fetched artifact payload into extractable text.
type Converter struct {
	binary string
	runner Runner
}

// NewConverter creates a converter using the given pdftotext binary.
func NewConverter(binary string) *Converter {
	if binary == "" {
		binary = "pdftotext"
	}
	return &Converter{binary: binary, runner: execRunner{}}
}

// NewConverterWithRunner creates a converter with a custom command runner.
func NewConverterWithRunner(binary string, runner Runner) *Converter {
	c := NewConverter(binary)
	c.runner = runner
	return c
}

// Text extracts text from an artifact payload. PDF payloads go through
// pdftotext; anything else is assumed to already be text and passes
// through unchanged (residual decoding noise is handled downstream).
func (c *Converter) Text(ctx context.Context, data []byte) (string, error) {
	if !isPDF(data) {
		return string(data), nil
	}

	tmp, err := os.CreateTemp("", "transferscan-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	// "-" sends the extracted text to stdout
	stdout, stderr, err := c.runner.Run(ctx, c.binary,
		"-layout", "-enc", "UTF-8", "-eol", "unix", tmp.Name(), "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w (stderr: %s)", err, bytes.TrimSpace(stderr))
	}

	return string(stdout), nil
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}
