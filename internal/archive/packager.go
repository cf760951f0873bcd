// Package archive bundles finished tracks into downloadable ZIP files.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
	"github.com/klauspost/compress/flate"
	"github.com/thanhpk/randstr"

	"github.com/spotiload/api/internal/storage"
)

// ErrPackagingFailed wraps any archive write error. Packaging failures
// are fatal to the job.
var ErrPackagingFailed = errors.New("packaging failed")

const (
	compressionLevel = 5
	suffixLength     = 8
)

// Packager writes job archives into the zip working directory.
type Packager struct {
	dir string
}

func NewPackager(dir string) *Packager {
	return &Packager{dir: dir}
}

// Create streams the given files into a new archive named after
// baseName plus a random suffix, so concurrent jobs with the same name
// never collide. Input paths that no longer exist are skipped; a file
// may have been swept between transcoding and packaging. Entries carry
// base names only, no directory structure. On any write error the
// half-written archive is removed before the error is reported.
func (p *Packager) Create(files []string, baseName string) (string, error) {
	name := fmt.Sprintf("%s-%s.zip", slug.Make(baseName), randstr.Hex(suffixLength/2))
	path := filepath.Join(p.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPackagingFailed, err)
	}

	if err := writeArchive(out, files); err != nil {
		out.Close()
		_ = storage.RemoveIfExists(path)
		return "", fmt.Errorf("%w: %v", ErrPackagingFailed, err)
	}
	if err := out.Close(); err != nil {
		_ = storage.RemoveIfExists(path)
		return "", fmt.Errorf("%w: %v", ErrPackagingFailed, err)
	}
	return path, nil
}

func writeArchive(out io.Writer, files []string) error {
	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, compressionLevel)
	})

	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := addFile(zw, file); err != nil {
			return err
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, file string) error {
	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(filepath.Base(file))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
