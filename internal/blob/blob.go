// Package blob stores file content addressed by its SHA-256 digest.
//
// Records keep a Ref instead of the content. Identical uploads share one blob.
package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

const (
	// sniffLen is how many leading bytes are used for MIME detection.
	sniffLen = 3072

	digestLen = sha256.Size * 2
	tmpDir    = "tmp"
)

var (
	// ErrNotFound is returned when no blob has the requested digest.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidDigest is returned for digests that are not 64 lower case hex characters.
	ErrInvalidDigest = errors.New("invalid blob digest")
)

// Ref identifies stored content.
type Ref struct {
	Digest   string
	Size     int64
	MimeType string
}

// Store is the blob storage used by the portal.
type Store interface {
	Put(ctx context.Context, r io.Reader) (Ref, error)
	Open(ctx context.Context, digest string) (io.ReadCloser, Ref, error)
	Exists(ctx context.Context, digest string) (bool, error)
	Delete(ctx context.Context, digest string) error
}

// FS is a Store on top of an afero filesystem. Blobs live at
// <root>/<d[0:2]>/<d[2:4]>/<digest>.
type FS struct {
	fs   afero.Fs
	root string
}

var _ Store = (*FS)(nil)

// NewFS creates the root directory if needed and returns the store.
func NewFS(fs afero.Fs, root string) (*FS, error) {
	if err := fs.MkdirAll(path.Join(root, tmpDir), 0o750); err != nil {
		return nil, fmt.Errorf("blob: create root %s: %w", root, err)
	}

	return &FS{fs: fs, root: root}, nil
}

// ValidDigest reports whether digest has the shape of a hex sha256.
func ValidDigest(digest string) bool {
	if len(digest) != digestLen {
		return false
	}

	for i := 0; i < len(digest); i++ {
		c := digest[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}

func (s *FS) blobPath(digest string) string {
	return path.Join(s.root, digest[0:2], digest[2:4], digest)
}

// Put streams r into the store. Content already present is not written twice.
func (s *FS) Put(ctx context.Context, r io.Reader) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, err
	}

	head := make([]byte, sniffLen)

	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Ref{}, fmt.Errorf("blob: read: %w", err)
	}

	head = head[:n]

	tmp, err := afero.TempFile(s.fs, path.Join(s.root, tmpDir), "upload-*")
	if err != nil {
		return Ref{}, fmt.Errorf("blob: create temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = s.fs.Remove(tmpName)
	}()

	hash := sha256.New()

	size, err := io.Copy(io.MultiWriter(tmp, hash), io.MultiReader(bytes.NewReader(head), r))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return Ref{}, fmt.Errorf("blob: write: %w", err)
	}

	ref := Ref{
		Digest:   hex.EncodeToString(hash.Sum(nil)),
		Size:     size,
		MimeType: mimetype.Detect(head).String(),
	}

	dest := s.blobPath(ref.Digest)

	if _, err = s.fs.Stat(dest); err == nil {
		return ref, nil
	}

	if err = s.fs.MkdirAll(path.Dir(dest), 0o750); err != nil {
		return Ref{}, fmt.Errorf("blob: create dir: %w", err)
	}

	if err = s.fs.Rename(tmpName, dest); err != nil {
		return Ref{}, fmt.Errorf("blob: store %s: %w", ref.Digest, err)
	}

	return ref, nil
}

// Open returns a reader for the blob. The caller closes it.
func (s *FS) Open(ctx context.Context, digest string) (io.ReadCloser, Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, Ref{}, err
	}

	if !ValidDigest(digest) {
		return nil, Ref{}, ErrInvalidDigest
	}

	f, err := s.fs.Open(s.blobPath(digest))
	if errors.Is(err, os.ErrNotExist) {
		return nil, Ref{}, ErrNotFound
	}

	if err != nil {
		return nil, Ref{}, fmt.Errorf("blob: open %s: %w", digest, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, Ref{}, fmt.Errorf("blob: stat %s: %w", digest, err)
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		_ = f.Close()

		return nil, Ref{}, fmt.Errorf("blob: sniff %s: %w", digest, err)
	}

	if _, err = f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()

		return nil, Ref{}, fmt.Errorf("blob: rewind %s: %w", digest, err)
	}

	return f, Ref{Digest: digest, Size: info.Size(), MimeType: mime.String()}, nil
}

// Exists reports whether a blob with digest is stored.
func (s *FS) Exists(ctx context.Context, digest string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if !ValidDigest(digest) {
		return false, ErrInvalidDigest
	}

	ok, err := afero.Exists(s.fs, s.blobPath(digest))
	if err != nil {
		return false, fmt.Errorf("blob: stat %s: %w", digest, err)
	}

	return ok, nil
}

// Delete removes the blob. Deleting an absent blob is not an error.
func (s *FS) Delete(ctx context.Context, digest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !ValidDigest(digest) {
		return ErrInvalidDigest
	}

	err := s.fs.Remove(s.blobPath(digest))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("blob: delete %s: %w", digest, err)
	}

	return nil
}
