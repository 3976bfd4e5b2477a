package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTranscoder(decodeErr, webpErr error) *Transcoder {
	return &Transcoder{
		decode: func(io.Reader) (image.Image, error) {
			if decodeErr != nil {
				return nil, decodeErr
			}
			return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
		},
		encodeWebP: func(w io.Writer, _ image.Image, q int) error {
			if webpErr != nil {
				return webpErr
			}
			_, err := w.Write([]byte("webp-q" + string(rune('0'+q/10)) + string(rune('0'+q%10))))
			return err
		},
		encodeJPEG: func(w io.Writer, img image.Image, q int) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
		},
	}
}

func noisePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = byte(rng.Intn(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIsLegacy(t *testing.T) {
	tests := []struct {
		contentType string
		name        string
		want        bool
	}{
		{"image/heic", "a.bin", true},
		{"IMAGE/HEIF", "", true},
		{"", "IMG_0001.HEIC", true},
		{"", "https://cdn.example/o/photo.heif?alt=media", true},
		{"", "https://cdn.example/o/photo.heic#frag", true},
		{"image/jpeg", "photo.jpg", false},
		{"", "heic.png", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLegacy(tt.contentType, tt.name), "%q %q", tt.contentType, tt.name)
	}
}

func TestRenameWithExt(t *testing.T) {
	assert.Equal(t, "IMG_1.webp", RenameWithExt("IMG_1.HEIC", ".webp"))
	assert.Equal(t, "image.jpg", RenameWithExt("", ".jpg"))
	assert.Equal(t, "archive.tar.jpg", RenameWithExt("archive.tar.gz", ".jpg"))
	assert.Equal(t, "clip.gif.jpg", recompressedName("clip.gif"))
	assert.Equal(t, "shot.jpg", recompressedName("shot.PNG"))
}

func TestTranscoderPrefersWebP(t *testing.T) {
	out, err := fakeTranscoder(nil, nil).Convert(File{Name: "IMG_7.heic", ContentType: "image/heic", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "IMG_7.webp", out.Name)
	assert.Equal(t, "image/webp", out.ContentType)
	assert.Equal(t, "webp-q86", string(out.Data))
}

func TestTranscoderFallsBackToJPEG(t *testing.T) {
	out, err := fakeTranscoder(nil, errors.New("no webp")).Convert(File{Name: "IMG_7.heic", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "IMG_7.jpg", out.Name)
	assert.Equal(t, "image/jpeg", out.ContentType)
	_, err = jpeg.Decode(bytes.NewReader(out.Data))
	assert.NoError(t, err)
}

func TestTranscoderTotalFailure(t *testing.T) {
	_, err := fakeTranscoder(errors.New("corrupt"), nil).Convert(File{Name: "bad.heic"})
	assert.ErrorIs(t, err, ErrTranscode)
}

func TestPrepareLegacyFailureKeepsOriginal(t *testing.T) {
	p := NewPreparer(0, fakeTranscoder(errors.New("corrupt"), nil), nil)
	in := File{Name: "IMG_1.heic", ContentType: "image/heic", Data: []byte("not really heic")}
	out, err := p.Prepare(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPrepareLegacyWithoutDeclaredType(t *testing.T) {
	p := NewPreparer(0, fakeTranscoder(nil, nil), nil)
	out, err := p.Prepare(context.Background(), File{Name: "IMG_2.HEIF", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "IMG_2.webp", out.Name)
	assert.Equal(t, "image/webp", out.ContentType)
}

func TestPrepareDownsamplesLargeImages(t *testing.T) {
	data := noisePNG(t, 2400, 600)
	p := NewPreparer(0, fakeTranscoder(nil, nil), nil)

	out, err := p.Prepare(context.Background(), File{Name: "wide.png", ContentType: "image/png", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "wide.jpg", out.Name)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Less(t, len(out.Data), len(data))

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Width)
	assert.Equal(t, 500, cfg.Height)
}

func TestPrepareSkipsDecodeBeyondPixelLimit(t *testing.T) {
	data := noisePNG(t, 2400, 600)
	p := NewPreparer(0, nil, nil).WithMaxPixels(1_000_000)

	in := File{Name: "wide.png", ContentType: "image/png", Data: data}
	out, err := p.Prepare(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTranscoderRejectsOversizedDimensions(t *testing.T) {
	decoded := false
	tr := fakeTranscoder(nil, nil)
	tr.decodeConfig = func(io.Reader) (image.Config, error) {
		return image.Config{Width: 9000, Height: 9000}, nil
	}
	tr.decode = func(io.Reader) (image.Image, error) {
		decoded = true
		return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
	}

	_, err := tr.Convert(File{Name: "bomb.heic", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrTranscode)
	assert.False(t, decoded)

	out, err := NewPreparer(0, tr, nil).Prepare(context.Background(), File{Name: "bomb.heic", ContentType: "image/heic", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "bomb.heic", out.Name)
}

func TestPrepareKeepsOriginalWhenNotSmaller(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	in := File{Name: "dot.png", ContentType: "image/png", Data: buf.Bytes()}
	out, err := NewPreparer(0, nil, nil).Prepare(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPrepareUndecodableImageKeepsOriginal(t *testing.T) {
	in := File{Name: "broken.png", ContentType: "image/png", Data: []byte("garbage")}
	out, err := NewPreparer(0, nil, nil).Prepare(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPrepareRejectsOversize(t *testing.T) {
	in := File{Name: "big.bin", ContentType: "application/octet-stream", Data: make([]byte, DefaultMaxBytes+1)}
	_, err := NewPreparer(0, nil, nil).Prepare(context.Background(), in)

	var oversize *OversizeError
	require.ErrorAs(t, err, &oversize)
	assert.Equal(t, DefaultMaxBytes+1, oversize.Size)
	assert.True(t, strings.Contains(oversize.Error(), "10 MB"))
}

func TestPrepareAcceptsExactCeiling(t *testing.T) {
	in := File{Name: "edge.bin", ContentType: "application/octet-stream", Data: make([]byte, 1024)}
	out, err := NewPreparer(1024, nil, nil).Prepare(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestApplyOrientationSwapsAxes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 10))
	rotated := applyOrientation(img, 6)
	assert.Equal(t, 10, rotated.Bounds().Dx())
	assert.Equal(t, 40, rotated.Bounds().Dy())
	assert.Equal(t, img, applyOrientation(img, 1))
}
