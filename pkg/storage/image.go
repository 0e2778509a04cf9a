package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/dmitrymomot/cineverse/pkg/id"
)

// DefaultMaxImageSize bounds image uploads: 2 MiB.
const DefaultMaxImageSize = 2 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PutImage validates an uploaded image and stores it under
// prefix/<ulid>.<ext>. The type is sniffed from the first bytes; the
// client-declared Content-Type is ignored.
func PutImage(ctx context.Context, s Storage, fh *multipart.FileHeader, prefix string, maxSize int64) (*FileInfo, error) {
	if fh == nil || fh.Size <= 0 {
		return nil, ErrEmptyFile
	}
	if maxSize > 0 && fh.Size > maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, fh.Size, maxSize)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	contentType, _, _ := strings.Cut(http.DetectContentType(head[:n]), ";")
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMIME, contentType)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	key := path.Join(strings.Trim(prefix, "/"), id.NewULID()+ext)
	if err := s.Put(ctx, key, f, fh.Size, contentType); err != nil {
		return nil, err
	}
	return &FileInfo{Key: key, URL: s.URL(key), ContentType: contentType, Size: fh.Size}, nil
}

// KeyFromURL recovers the key of an object stored by s from its URL, or
// returns "" when url does not belong to s.
func KeyFromURL(s Storage, url string) string {
	base := strings.TrimSuffix(s.URL(""), "/") + "/"
	key, ok := strings.CutPrefix(url, base)
	if !ok || key == "" {
		return ""
	}
	return key
}
