// Package intake validates uploaded documents and stages them to the
// process-local staging directory for the proxy stage to consume.
package intake

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/docsense/gateway/internal/domain"
)

// acceptedMIME is the only declared content type accepted for uploads.
const acceptedMIME = "application/pdf"

// Intake validates and stages uploaded files.
type Intake struct {
	dir    string
	logger *slog.Logger
}

// New creates an intake writing staged files under dir, creating it if
// needed.
func New(dir string, logger *slog.Logger) (*Intake, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}
	return &Intake{dir: dir, logger: logger}, nil
}

// Stage validates the declared MIME type and filename extension, then writes
// the file bytes to a uniquely named file in the staging directory. The
// declared type alone is not trusted; both checks must pass. Nothing is
// written to disk unless validation succeeds.
func (i *Intake) Stage(originalName, declaredMIME string, r io.Reader) (string, error) {
	if declaredMIME != acceptedMIME {
		return "", domain.ErrInvalidType("Only PDF files are allowed.")
	}
	if !strings.EqualFold(filepath.Ext(originalName), ".pdf") {
		return "", domain.ErrInvalidType("Only PDF files are allowed.")
	}

	staged := filepath.Join(i.dir, uuid.New().String()+".pdf")
	f, err := os.Create(staged)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(staged)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}

	i.logger.Info("upload staged",
		slog.String("original_name", originalName),
		slog.String("staged_path", staged),
		slog.Int64("size_bytes", n),
	)
	return staged, nil
}

// Discard removes a staged file once the proxy attempt has completed.
// A missing file is not an error.
func (i *Intake) Discard(stagedPath string) {
	if stagedPath == "" {
		return
	}
	if err := os.Remove(stagedPath); err != nil && !os.IsNotExist(err) {
		i.logger.Warn("failed to discard staged file",
			slog.String("staged_path", stagedPath),
			slog.String("error", err.Error()),
		)
	}
}
