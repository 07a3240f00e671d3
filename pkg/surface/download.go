package surface

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/visaposter/pkg/errors"
)

// Download is a finished export ready to be handed to the user.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Downloader delivers a download and returns where it ended up.
type Downloader interface {
	Deliver(ctx context.Context, d *Download) (string, error)
}

// FileDownloader writes downloads into a directory.
type FileDownloader struct {
	Dir string
}

// Deliver writes d to Dir/d.Filename, replacing an existing file atomically.
func (fd FileDownloader) Deliver(ctx context.Context, d *Download) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := fd.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeDelivery, err, "create output dir")
	}
	name := errors.SanitizeFilename(d.Filename)
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDelivery, err, "create %s", name)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(d.Data); err != nil {
		tmp.Close()
		return "", errors.Wrap(errors.ErrCodeDelivery, err, "write %s", name)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeDelivery, err, "write %s", name)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeDelivery, err, "write %s", name)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(errors.ErrCodeDelivery, err, "save %s", name)
	}
	return path, nil
}

// FuncDownloader adapts a function to Downloader.
type FuncDownloader func(ctx context.Context, d *Download) (string, error)

// Deliver calls f.
func (f FuncDownloader) Deliver(ctx context.Context, d *Download) (string, error) {
	if f == nil {
		return "", fmt.Errorf("nil downloader")
	}
	return f(ctx, d)
}
