// Package mover applies sort plan entries to the filesystem. It is the
// only part of the pipeline that mutates anything.
package mover

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/mydehq/mediasort/internal/config"
	"github.com/mydehq/mediasort/internal/types"
)

// Mover implements types.Mover for one transfer mode and option set.
type Mover struct {
	transfer types.Transfer
	options  config.MoveOptions
	log      *log.Logger
}

// New builds a mover. A nil logger falls back to the default.
func New(transfer types.Transfer, options config.MoveOptions, logger *log.Logger) *Mover {
	if logger == nil {
		logger = log.Default()
	}
	return &Mover{transfer: transfer, options: options, log: logger}
}

// Apply executes one plan entry. Skip entries are honored without
// touching the filesystem. Failures are returned both as the result
// status and as the error so callers can aggregate either way.
func (m *Mover) Apply(ctx context.Context, entry types.SortPlanEntry) (types.MoveResult, error) {
	switch entry.Action {
	case types.ActionSkipCollision, types.ActionSkipUnresolved:
		return types.MoveResult{Status: types.MoveStatusSkipped, Reason: entry.Reason}, nil
	case types.ActionMove, types.ActionRename:
	default:
		return types.MoveResult{Status: types.MoveStatusSkipped, Reason: "unknown action"}, nil
	}

	if err := ctx.Err(); err != nil {
		return types.MoveResult{Status: types.MoveStatusSkipped, Reason: err.Error()}, err
	}

	if err := m.place(entry.Source, entry.Destination); err != nil {
		m.log.Error("transfer failed", "source", entry.Source, "err", err)
		return types.MoveResult{Status: types.MoveStatusFailed, Reason: err.Error()}, err
	}

	if m.options.InfoFile {
		if err := writeInfoFile(entry); err != nil {
			m.log.Warn("info file not written", "destination", entry.Destination, "err", err)
		}
	}
	if m.options.Shasum {
		if err := writeShasum(entry.Destination); err != nil {
			m.log.Warn("shasum not written", "destination", entry.Destination, "err", err)
		}
	}

	return types.MoveResult{Status: types.MoveStatusMoved}, nil
}

// place relocates source to dest according to the transfer mode,
// creating parent directories and honoring the overwrite option.
func (m *Mover) place(source, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if _, err := os.Lstat(dest); err == nil {
		if !m.options.Overwrite {
			return fmt.Errorf("destination %s exists, overwrite not allowed", dest)
		}
		m.log.Info("removing existing destination for overwrite", "destination", dest)
		if err := os.Remove(dest); err != nil {
			return err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	switch m.transfer {
	case types.TransferMove:
		return moveFile(source, dest)
	case types.TransferHardlink:
		return os.Link(source, dest)
	case types.TransferSymlink:
		src, err := filepath.Abs(source)
		if err != nil {
			return err
		}
		return os.Symlink(src, dest)
	default:
		return copyFile(source, dest)
	}
}

// moveFile renames when possible and falls back to copy-and-remove when
// source and destination sit on different devices.
func moveFile(source, dest string) error {
	if err := os.Rename(source, dest); err == nil {
		return nil
	}
	if err := copyFile(source, dest); err != nil {
		return err
	}
	return os.Remove(source)
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

// writeInfoFile drops a "<dest>.txt" sidecar describing the sorted file.
func writeInfoFile(entry types.SortPlanEntry) error {
	contents := fmt.Sprintf(
		"Source filename:  %s\nSource directory: %s\n",
		filepath.Base(entry.Source),
		filepath.Dir(entry.Source),
	)
	return os.WriteFile(entry.Destination+".txt", []byte(contents), 0o644)
}

// writeShasum drops a "<dest>.sha256sum" sidecar in the sha256sum(1)
// binary-mode format.
func writeShasum(dest string) error {
	f, err := os.Open(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}

	line := fmt.Sprintf("%x *%s\n", h.Sum(nil), filepath.Base(dest))
	return os.WriteFile(dest+".sha256sum", []byte(line), 0o644)
}
