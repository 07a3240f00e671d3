package assets

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/matzehuels/visaposter/pkg/cache"
)

// MaxAssetBytes bounds the size of a single asset.
const MaxAssetBytes = 32 << 20

// Source fetches the raw encoded bytes of an asset.
type Source interface {
	// Fetch returns the bytes for id. A missing asset wraps cache.ErrNotFound.
	Fetch(ctx context.Context, id string) ([]byte, error)

	// Name identifies the source in logs and cache keys.
	Name() string
}

// =============================================================================
// Directory source
// =============================================================================

// DirSource serves assets from a file system, ids being slash-separated
// paths relative to its root.
type DirSource struct {
	fsys fs.FS
	name string
}

// NewDirSource serves assets from dir on disk.
func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("assets dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets dir %s: not a directory", dir)
	}
	return &DirSource{fsys: os.DirFS(dir), name: "dir:" + dir}, nil
}

// NewFSSource serves assets from fsys.
func NewFSSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys, name: "fs"}
}

// Name returns the source name.
func (s *DirSource) Name() string { return s.name }

// Fetch reads id from the file system.
func (s *DirSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := path.Clean(strings.TrimPrefix(id, "/"))
	if !fs.ValidPath(p) {
		return nil, fmt.Errorf("invalid asset path %q", id)
	}
	data, err := fs.ReadFile(s.fsys, p)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", id, cache.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if len(data) > MaxAssetBytes {
		return nil, fmt.Errorf("%s: asset larger than %d bytes", id, MaxAssetBytes)
	}
	return data, nil
}

// =============================================================================
// Mux
// =============================================================================

// Mux routes ids to sources: "data:" URIs to Inline, http(s) URLs to Remote
// and everything else to Local. A nil route yields an error for ids of that
// form.
type Mux struct {
	Local  Source
	Remote Source
	Inline Source
}

// Name returns the source name.
func (m *Mux) Name() string { return "mux" }

// Fetch dispatches id to the matching source.
func (m *Mux) Fetch(ctx context.Context, id string) ([]byte, error) {
	src := m.route(id)
	if src == nil {
		return nil, fmt.Errorf("no source configured for asset %q", truncateID(id))
	}
	return src.Fetch(ctx, id)
}

func (m *Mux) route(id string) Source {
	switch {
	case strings.HasPrefix(id, "data:"):
		return m.Inline
	case strings.HasPrefix(id, "http://"), strings.HasPrefix(id, "https://"):
		return m.Remote
	default:
		return m.Local
	}
}

// truncateID shortens long ids (data URIs) for messages and logs.
func truncateID(id string) string {
	const max = 48
	if len(id) <= max {
		return id
	}
	return id[:max] + "..."
}
