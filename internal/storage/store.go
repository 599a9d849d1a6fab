// Package storage saves uploaded post images.
package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// UploadDir is the prefix every stored image name starts with.
const UploadDir = "posts"

// MaxNameLength is the longest stored name the post image column holds.
const MaxNameLength = 100

const maxExtLength = 10

// ErrNotImage is returned when an upload is not a recognised image format.
var ErrNotImage = errors.New("upload a valid image. the file you uploaded was either not an image or a corrupted image")

// ImageStore persists images and resolves their public URL.
type ImageStore interface {
	// Save stores the content under posts/<filename> and returns the stored name,
	// which differs from the requested one when that name is taken.
	Save(ctx context.Context, filename string, content io.Reader) (string, error)
	URL(name string) string
}

var unsafeChars = regexp.MustCompile(`[^\w.-]`)

// CleanFilename strips directories and characters that are unsafe in object names.
func CleanFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = unsafeChars.ReplaceAllString(strings.TrimSpace(base), "_")
	base = strings.TrimLeft(base, ".")
	if base == "" || base == "_" {
		return "image"
	}
	return base
}

// splitName splits name into stem and extension, cutting the stem so that
// stem, reserve more bytes and the extension fit in MaxNameLength.
func splitName(name string, reserve int) (string, string) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if len(ext) > maxExtLength {
		ext = ext[:maxExtLength]
	}
	if limit := MaxNameLength - reserve - len(ext); len(stem) > limit {
		stem = stem[:limit]
	}
	return stem, ext
}

// uploadName is the first name an upload is stored under.
func uploadName(filename string) string {
	stem, ext := splitName(path.Join(UploadDir, CleanFilename(filename)), 0)
	return stem + ext
}

// alternativeName returns base_<random>.ext for a taken name.
func alternativeName(name string) string {
	stem, ext := splitName(name, 8)
	return stem + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:7] + ext
}

// SniffImage reads the head of content and fails with ErrNotImage unless it is an
// image. The returned reader yields the full content again.
func SniffImage(content io.Reader) (io.Reader, string, error) {
	header := make([]byte, 3072)
	n, err := io.ReadFull(content, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	header = header[:n]
	mtype := mimetype.Detect(header)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", ErrNotImage
	}
	return io.MultiReader(bytes.NewReader(header), content), mtype.String(), nil
}
