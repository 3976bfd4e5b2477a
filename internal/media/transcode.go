package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/gen2brain/heic"
	"github.com/gen2brain/webp"
)

const (
	webpQuality = 86
	jpegQuality = 88
)

// ErrTranscode is wrapped by every transcoding failure. It never reaches the
// submitter; callers fall back to the original file.
var ErrTranscode = errors.New("transcode failed")

// Transcoder converts HEIC/HEIF images to WebP, falling back to JPEG.
type Transcoder struct {
	decodeConfig func(io.Reader) (image.Config, error)
	decode       func(io.Reader) (image.Image, error)
	encodeWebP   func(io.Writer, image.Image, int) error
	encodeJPEG   func(io.Writer, image.Image, int) error
	maxPixels    int64
}

// NewTranscoder returns a transcoder backed by the HEIF and WebP codecs.
func NewTranscoder() *Transcoder {
	return &Transcoder{
		decodeConfig: heic.DecodeConfig,
		decode:       heic.Decode,
		maxPixels:    MaxPixels,
		encodeWebP: func(w io.Writer, img image.Image, quality int) error {
			return webp.Encode(w, img, webp.Options{Quality: quality})
		},
		encodeJPEG: func(w io.Writer, img image.Image, quality int) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
		},
	}
}

// Convert decodes a legacy image and re-encodes it for the web. The output
// keeps the original name stem with the new extension.
func (t *Transcoder) Convert(f File) (File, error) {
	if t.decodeConfig != nil {
		cfg, err := t.decodeConfig(bytes.NewReader(f.Data))
		if err != nil {
			return File{}, fmt.Errorf("%w: read header %s: %v", ErrTranscode, f.Name, err)
		}
		limit := t.maxPixels
		if limit <= 0 {
			limit = MaxPixels
		}
		if !withinPixels(cfg, limit) {
			return File{}, fmt.Errorf("%w: %s is %dx%d pixels", ErrTranscode, f.Name, cfg.Width, cfg.Height)
		}
	}

	img, err := t.decode(bytes.NewReader(f.Data))
	if err != nil {
		return File{}, fmt.Errorf("%w: decode %s: %v", ErrTranscode, f.Name, err)
	}

	var buf bytes.Buffer
	if err := t.encodeWebP(&buf, img, webpQuality); err == nil && buf.Len() > 0 {
		return File{Name: RenameWithExt(f.Name, ".webp"), ContentType: "image/webp", Data: buf.Bytes()}, nil
	}

	buf.Reset()
	if err := t.encodeJPEG(&buf, img, jpegQuality); err != nil {
		return File{}, fmt.Errorf("%w: encode %s: %v", ErrTranscode, f.Name, err)
	}
	return File{Name: RenameWithExt(f.Name, ".jpg"), ContentType: "image/jpeg", Data: buf.Bytes()}, nil
}
