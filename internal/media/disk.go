package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DiskStore writes media to a local directory served under a fixed URL
// prefix (the default deployment, matching static file serving in the API).
type DiskStore struct {
	dir      string
	baseURL  string
	prefix   string
	maxBytes int64
}

// NewDiskStore creates the upload directory if needed and returns the store.
// Directory creation is idempotent so repeated startups are safe.
func NewDiskStore(dir, baseURL, prefix string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		prefix:   prefix,
		maxBytes: maxBytes,
	}, nil
}

// Save streams the upload to disk under a collision-resistant filename and
// returns its public URL. The partial file is removed on any failure.
func (s *DiskStore) Save(ctx context.Context, r io.Reader, originalName, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uniqueName(originalName)
	path := filepath.Join(s.dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	written, err := copyBounded(dst, r, s.maxBytes)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if written == 0 {
		os.Remove(path)
		return "", ErrEmptyMedia
	}
	return s.baseURL + s.prefix + name, nil
}

func copyBounded(dst io.Writer, src io.Reader, limit int64) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			written += int64(n)
			if limit > 0 && written > limit {
				return written, ErrTooLarge
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("write media file: %w", err)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return written, nil
			}
			return written, fmt.Errorf("read upload: %w", readErr)
		}
	}
}

// uniqueName combines a nanosecond timestamp with a random hex suffix so
// concurrent uploads never collide, keeping the original extension for
// content-type inference by static file servers.
func uniqueName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) > 8 {
		ext = ext[:8]
	}
	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), randomHex(6), ext)
}

func randomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	s := hex.EncodeToString(buf)
	if len(s) > n {
		s = s[:n]
	}
	return s
}
