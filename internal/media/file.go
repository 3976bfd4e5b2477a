// Package media prepares user-supplied files for upload: legacy image
// formats are transcoded, oversized rasters are downsampled and every file is
// held to a byte ceiling.
package media

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// DefaultMaxBytes mirrors the storage rules' upload ceiling.
const DefaultMaxBytes int64 = 10 * 1024 * 1024

// File is an in-memory upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the byte size of the file.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// IsImage reports whether the file is an image, including legacy formats a
// browser may report without a MIME type.
func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/") || IsLegacy(f.ContentType, f.Name)
}

// OversizeError is returned when a prepared file exceeds the ceiling.
type OversizeError struct {
	Size  int64
	Limit int64
}

func (e *OversizeError) Error() string {
	return fmt.Sprintf("File too large. Please choose a file under %d MB.", e.Limit/(1024*1024))
}

var (
	legacyTypeRE = regexp.MustCompile(`(?i)image/(heic|heif)`)
	legacyExtRE  = regexp.MustCompile(`(?i)\.(heic|heif)(?:$|[?#])`)
	anyExtRE     = regexp.MustCompile(`\.[^/.]+$`)
	rasterExtRE  = regexp.MustCompile(`(?i)\.(heic|heif|png|webp|jpg|jpeg)$`)
)

// IsLegacy reports whether a declared type or a name/URL denotes HEIC/HEIF.
func IsLegacy(contentType, name string) bool {
	return legacyTypeRE.MatchString(contentType) || legacyExtRE.MatchString(name)
}

// RenameWithExt swaps the extension of name, falling back to "image".
func RenameWithExt(name, ext string) string {
	base := anyExtRE.ReplaceAllString(path.Base(strings.ReplaceAll(name, "\\", "/")), "")
	if name == "" || base == "" || base == "." || base == "/" {
		base = "image"
	}
	return base + ext
}

// recompressedName strips known raster extensions only, so "clip.gif"
// becomes "clip.gif.jpg".
func recompressedName(name string) string {
	if name == "" {
		name = "image"
	}
	return rasterExtRE.ReplaceAllString(name, "") + ".jpg"
}
