package media

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"io.winapps.memorialboard/internal/metrics"
)

const (
	// MaxDimension bounds the larger side of a recompressed image.
	MaxDimension   = 2000
	recompressQual = 82
	// MaxPixels bounds the decoded size of an image. Larger images are kept
	// as uploaded without being decoded.
	MaxPixels = 50_000_000
)

// Preparer normalizes a file before upload.
type Preparer struct {
	maxBytes   int64
	maxPixels  int64
	transcoder *Transcoder
	logger     *zap.SugaredLogger
}

// NewPreparer creates a preparer enforcing maxBytes. A non-positive limit
// uses DefaultMaxBytes.
func NewPreparer(maxBytes int64, transcoder *Transcoder, logger *zap.SugaredLogger) *Preparer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if transcoder == nil {
		transcoder = NewTranscoder()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Preparer{maxBytes: maxBytes, maxPixels: MaxPixels, transcoder: transcoder, logger: logger}
}

// WithMaxPixels overrides the decode limit for recompressed images.
func (p *Preparer) WithMaxPixels(n int64) *Preparer {
	if n > 0 {
		p.maxPixels = n
	}
	return p
}

// MaxBytes returns the configured ceiling.
func (p *Preparer) MaxBytes() int64 {
	return p.maxBytes
}

// Prepare transcodes legacy images, downsamples other images and enforces the
// size ceiling. Only the ceiling produces an error; codec failures keep the
// original bytes.
func (p *Preparer) Prepare(ctx context.Context, f File) (File, error) {
	if f.IsImage() {
		if err := ctx.Err(); err != nil {
			return File{}, err
		}
		f = p.normalize(f)
	}
	if err := p.CheckSize(f); err != nil {
		return File{}, err
	}
	return f, nil
}

// CheckSize reports an *OversizeError when f is over the ceiling.
func (p *Preparer) CheckSize(f File) error {
	if f.Size() > p.maxBytes {
		metrics.MediaPreparedTotal.WithLabelValues("oversize").Inc()
		return &OversizeError{Size: f.Size(), Limit: p.maxBytes}
	}
	return nil
}

func (p *Preparer) normalize(f File) File {
	if IsLegacy(f.ContentType, f.Name) {
		out, err := p.transcoder.Convert(f)
		if err != nil {
			p.logger.Warnw("Legacy image conversion failed, keeping original",
				"name", f.Name,
				"error", err,
			)
			metrics.MediaPreparedTotal.WithLabelValues("transcode_failed").Inc()
			return f
		}
		metrics.MediaPreparedTotal.WithLabelValues("transcoded").Inc()
		return out
	}

	out, ok := p.recompress(f)
	if !ok {
		metrics.MediaPreparedTotal.WithLabelValues("original").Inc()
		return f
	}
	metrics.MediaPreparedTotal.WithLabelValues("recompressed").Inc()
	return out
}

// recompress fits the image inside MaxDimension and re-encodes it as JPEG,
// keeping the result only when it is strictly smaller.
func (p *Preparer) recompress(f File) (File, bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		p.logger.Debugw("Image header unreadable, keeping original", "name", f.Name, "error", err)
		return File{}, false
	}
	if !withinPixels(cfg, p.maxPixels) {
		p.logger.Infow("Image too large to decode, keeping original",
			"name", f.Name,
			"width", cfg.Width,
			"height", cfg.Height,
		)
		return File{}, false
	}

	img, err := imaging.Decode(bytes.NewReader(f.Data))
	if err != nil {
		p.logger.Debugw("Image decode failed, keeping original", "name", f.Name, "error", err)
		return File{}, false
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(f.Data)))
	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: recompressQual}); err != nil {
		p.logger.Debugw("Image encode failed, keeping original", "name", f.Name, "error", err)
		return File{}, false
	}
	if buf.Len() >= len(f.Data) {
		return File{}, false
	}
	return File{Name: recompressedName(f.Name), ContentType: "image/jpeg", Data: buf.Bytes()}, true
}

func withinPixels(cfg image.Config, limit int64) bool {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return false
	}
	return int64(cfg.Width)*int64(cfg.Height) <= limit
}

// fit scales img so its larger side is at most maxSide. Images already within
// bounds are returned unchanged.
func fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if longest <= maxSide || longest == 0 {
		return img
	}
	scale := float64(maxSide) / float64(longest)
	tw := max(1, int(math.Round(float64(w)*scale)))
	th := max(1, int(math.Round(float64(h)*scale)))
	return imaging.Resize(img, tw, th, imaging.Lanczos)
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
