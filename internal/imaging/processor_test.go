package imaging_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"strings"
	"testing"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/imaging"
)

// noisyJPEG builds a JPEG full of seeded random pixels. Noise compresses
// poorly, so large dimensions reliably exceed the byte budget.
func noisyJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func flatJPEG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = 255
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestProcess_BoundsLargeImage(t *testing.T) {
	input := noisyJPEG(t, 2048, 1536)

	res, err := imaging.Process(input, imaging.DefaultOptions())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if res.Width > 1024 || res.Height > 1024 {
		t.Errorf("expected longer side <= 1024, got %dx%d", res.Width, res.Height)
	}
	if len(res.Data) > imaging.DefaultMaxBytes {
		t.Errorf("expected <= %d bytes, got %d", imaging.DefaultMaxBytes, len(res.Data))
	}
	// Aspect ratio preserved (2048:1536 = 4:3).
	if res.Width != 1024 || res.Height != 768 {
		t.Errorf("expected 1024x768, got %dx%d", res.Width, res.Height)
	}
}

func TestProcess_SmallImagePassesThrough(t *testing.T) {
	input := flatJPEG(t, 400, 300, color.RGBA{R: 200, G: 180, B: 160})

	res, err := imaging.Process(input, imaging.DefaultOptions())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if res.Width != 400 || res.Height != 300 {
		t.Errorf("expected dimensions preserved, got %dx%d", res.Width, res.Height)
	}
	if len(res.Data) > imaging.DefaultMaxBytes {
		t.Errorf("expected <= %d bytes, got %d", imaging.DefaultMaxBytes, len(res.Data))
	}
}

func TestProcess_TallImageBoundsHeight(t *testing.T) {
	input := noisyJPEG(t, 600, 3000)

	res, err := imaging.Process(input, imaging.DefaultOptions())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if res.Height != 1024 {
		t.Errorf("expected height 1024, got %d", res.Height)
	}
	if res.Width >= res.Height {
		t.Errorf("expected portrait output, got %dx%d", res.Width, res.Height)
	}
}

func TestProcess_RejectsGarbage(t *testing.T) {
	_, err := imaging.Process([]byte("not an image at all"), imaging.DefaultOptions())
	if err == nil {
		t.Fatal("expected decode error")
	}
	var imgErr *domain.ErrImage
	if !errors.As(err, &imgErr) {
		t.Fatalf("expected ErrImage, got %T", err)
	}
	if imgErr.Stage != "decode" {
		t.Errorf("expected decode stage, got %q", imgErr.Stage)
	}
}

func TestProcess_PreviewURL(t *testing.T) {
	input := flatJPEG(t, 64, 64, color.RGBA{R: 10, G: 20, B: 30})

	res, err := imaging.Process(input, imaging.DefaultOptions())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	url := res.PreviewURL()
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Errorf("unexpected preview prefix: %.40s", url)
	}
	if len(url) <= len("data:image/jpeg;base64,") {
		t.Error("expected non-empty preview payload")
	}
}

func TestStretchContrast_Deterministic(t *testing.T) {
	mk := func() *image.RGBA {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i] = uint8(i % 256)
			img.Pix[i+1] = uint8((i * 3) % 256)
			img.Pix[i+2] = uint8((i * 7) % 256)
			img.Pix[i+3] = 255
		}
		return img
	}

	a, b := mk(), mk()
	imaging.StretchContrast(a, 1.3)
	imaging.StretchContrast(b, 1.3)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("expected identical output for identical input")
	}
}

func TestStretchContrast_NotIdempotent(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 100
		img.Pix[i+1] = 160
		img.Pix[i+2] = 90
		img.Pix[i+3] = 255
	}

	imaging.StretchContrast(img, 1.3)
	once := append([]byte(nil), img.Pix...)
	imaging.StretchContrast(img, 1.3)
	if bytes.Equal(once, img.Pix) {
		t.Error("expected second application to change a non-neutral image")
	}
}

func TestStretchContrast_ClampsInsteadOfWrapping(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	// (250-128)*1.3+128 = 286.6 -> must clamp to 255, not wrap.
	img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3] = 250, 250, 250, 255
	// (5-128)*1.3+128 = -31.9 -> must clamp to 0.
	img.Pix[4], img.Pix[5], img.Pix[6], img.Pix[7] = 5, 5, 5, 255

	imaging.StretchContrast(img, 1.3)

	for ch := 0; ch < 3; ch++ {
		if img.Pix[ch] != 255 {
			t.Errorf("bright channel %d: expected 255, got %d", ch, img.Pix[ch])
		}
		if img.Pix[4+ch] != 0 {
			t.Errorf("dark channel %d: expected 0, got %d", ch, img.Pix[4+ch])
		}
	}
	if img.Pix[3] != 255 || img.Pix[7] != 255 {
		t.Error("alpha must be untouched")
	}
}

func TestStretchContrast_NeutralGrayUnchanged(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 128, 128, 128, 255
	}
	imaging.StretchContrast(img, 1.3)
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 128 {
			t.Fatalf("midpoint gray must be a fixed point, got %d", img.Pix[i])
		}
	}
}

func TestProcess_EnhanceChangesPixels(t *testing.T) {
	input := flatJPEG(t, 64, 64, color.RGBA{R: 80, G: 90, B: 100})

	plain, err := imaging.Process(input, imaging.DefaultOptions())
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	opts := imaging.DefaultOptions()
	opts.Enhance = true
	enhanced, err := imaging.Process(input, opts)
	if err != nil {
		t.Fatalf("enhanced: %v", err)
	}
	if bytes.Equal(plain.Data, enhanced.Data) {
		t.Error("expected contrast stretch to change the encoded output")
	}
	if len(enhanced.Data) > imaging.DefaultMaxBytes {
		t.Errorf("enhanced output must still respect the byte budget, got %d", len(enhanced.Data))
	}
}
