package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func createTestJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, fill(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int, c color.Color) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, fill(w, h, c))
	return buf.Bytes()
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img
}

func TestProcessJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(100, 80)))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if result.Width != 100 || result.Height != 80 {
		t.Errorf("expected 100x80, got %dx%d", result.Width, result.Height)
	}
}

func TestProcessPNGTransparency(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestPNG(40, 40, color.RGBA{})))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg (always outputs JPEG), got %s", result.MIME)
	}
	r, g, b, _ := decode(t, result.Data).At(20, 20).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("expected transparent pixels to become white, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestProcessGIF(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 30, 20), []color.Color{color.Black, color.White})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, pal, nil); err != nil {
		t.Fatal(err)
	}
	result, err := Process(&buf)
	if err != nil {
		t.Fatalf("Process GIF: %v", err)
	}
	if result.Width != 30 || result.Height != 20 {
		t.Errorf("expected 30x20, got %dx%d", result.Width, result.Height)
	}
}

func TestProcessDownscale(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(2400, 1200)))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}

	bounds := decode(t, result.Data).Bounds()
	if bounds.Dx() != MaxDimension || bounds.Dy() != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, bounds.Dx(), bounds.Dy())
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}

	bounds := decode(t, result.Data).Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("small image should not be resized: got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessInvalidFormat(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("not an image")))
	if err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestProcessTruncated(t *testing.T) {
	data := createTestPNG(10, 10, color.Black)
	_, err := Process(bytes.NewReader(data[:20]))
	if err == nil {
		t.Error("expected error for truncated PNG")
	}
}
