// Package imaging turns a user-picked photo into an upload-ready JPEG:
// bounded in dimensions and byte size, optionally contrast-stretched for
// better OCR legibility, with a data-URL preview for the client.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png" // gallery picks are often PNG screenshots

	"github.com/fisapp/receipt-bff-go/internal/domain"

	xdraw "golang.org/x/image/draw"
)

// Defaults match the mobile client's compression targets.
const (
	DefaultMaxBytes       = 512 << 10 // 0.5 MB
	DefaultMaxDimension   = 1024      // longer side, px
	DefaultContrastFactor = 1.3

	// enhanceQuality is the re-encode quality after a contrast stretch.
	enhanceQuality = 95
	// startQuality is the first attempt for plain recompression.
	startQuality = 85
	// floorQuality is the lowest quality tried before halving dimensions.
	floorQuality = 35
)

// Options bound the output of Process.
type Options struct {
	MaxBytes       int
	MaxDimension   int
	Enhance        bool
	ContrastFactor float64
}

// DefaultOptions returns the client's observed targets.
func DefaultOptions() Options {
	return Options{
		MaxBytes:       DefaultMaxBytes,
		MaxDimension:   DefaultMaxDimension,
		ContrastFactor: DefaultContrastFactor,
	}
}

// Result is a processed, upload-ready image.
type Result struct {
	Data       []byte
	Width      int
	Height     int
	InputBytes int
	Format     string // source format as reported by the decoder
}

// PreviewURL renders the processed JPEG as a base64 data URL so the
// client can show a preview without a network round trip.
func (r *Result) PreviewURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// Process runs the full pipeline: decode, downscale to the dimension
// bound, optional contrast stretch, and JPEG re-encode under the byte
// budget. Any decode/encode failure aborts the whole pipeline.
func Process(data []byte, opts Options) (*Result, error) {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.ContrastFactor <= 0 {
		opts.ContrastFactor = DefaultContrastFactor
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.ErrImage{Stage: "decode", Err: err}
	}

	rgba := toRGBA(src)
	if w, h := bounds(rgba); w > opts.MaxDimension || h > opts.MaxDimension {
		rgba = scaleToFit(rgba, opts.MaxDimension)
	}

	quality := startQuality
	if opts.Enhance {
		StretchContrast(rgba, opts.ContrastFactor)
		quality = enhanceQuality
	}

	// Step quality down until the byte budget is met; halve dimensions
	// as a last resort. Terminates: dimensions shrink geometrically.
	for {
		out, err := encodeJPEG(rgba, quality)
		if err != nil {
			return nil, &domain.ErrImage{Stage: "encode", Err: err}
		}
		if len(out) <= opts.MaxBytes {
			w, h := bounds(rgba)
			return &Result{
				Data:       out,
				Width:      w,
				Height:     h,
				InputBytes: len(data),
				Format:     format,
			}, nil
		}

		if quality-10 >= floorQuality {
			quality -= 10
			continue
		}

		w, h := bounds(rgba)
		if w <= 16 || h <= 16 {
			return nil, &domain.ErrImage{
				Stage: "encode",
				Err:   fmt.Errorf("cannot fit image into %d bytes", opts.MaxBytes),
			}
		}
		rgba = scaleToFit(rgba, max(w, h)/2)
		quality = startQuality
	}
}

// StretchContrast applies the OCR-legibility stretch in place:
// out = (in - 128) * factor + 128 per RGB channel, clamped to 8 bits.
// Alpha is untouched. Deterministic, and not idempotent for factor != 1.
func StretchContrast(img *image.RGBA, factor float64) {
	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = clamp8((float64(pix[i])-128)*factor + 128)
		pix[i+1] = clamp8((float64(pix[i+1])-128)*factor + 128)
		pix[i+2] = clamp8((float64(pix[i+2])-128)*factor + 128)
	}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// scaleToFit resizes so the longer side equals maxDim, preserving aspect
// ratio. Catmull-Rom keeps printed digits readable after downscaling.
func scaleToFit(src *image.RGBA, maxDim int) *image.RGBA {
	w, h := bounds(src)
	var dw, dh int
	if w >= h {
		dw = maxDim
		dh = h * maxDim / w
	} else {
		dh = maxDim
		dw = w * maxDim / h
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func encodeJPEG(img *image.RGBA, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func bounds(img *image.RGBA) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}
