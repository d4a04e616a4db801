package loader

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func writeImage(t *testing.T, dir, name string, w, h int, c color.RGBA, encode func(*bytes.Buffer, image.Image) error) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func encodePNG(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) }
func encodeBMP(b *bytes.Buffer, img image.Image) error { return bmp.Encode(b, img) }

func TestDecodePNG(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "red.png", 4, 2, color.RGBA{255, 0, 0, 255}, encodePNG)

	l := NewLoader()
	got, err := l.Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != 4 || got.Height != 2 {
		t.Fatalf("size = %dx%d, want 4x2", got.Width, got.Height)
	}
	if !got.Valid() {
		t.Fatalf("staging data has %d bytes for %dx%d", len(got.Pixels), got.Width, got.Height)
	}
	if got.Pixels[0] != 255 || got.Pixels[1] != 0 || got.Pixels[3] != 255 {
		t.Errorf("first texel = %v, want opaque red", got.Pixels[:4])
	}
	if !l.Cached(path) {
		t.Error("expected decode result to be cached")
	}
}

func TestDecodeBMP(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "blue.bmp", 3, 3, color.RGBA{0, 0, 255, 255}, encodeBMP)

	got, err := NewLoader(WithCache(false)).Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != 3 || got.Height != 3 || got.Pixels[2] != 255 {
		t.Errorf("unexpected bmp decode: %dx%d first texel %v", got.Width, got.Height, got.Pixels[:4])
	}
}

func TestDecodeFailuresWrapErrDecode(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	for _, path := range []string{filepath.Join(dir, "missing.png"), garbage} {
		_, err := l.Decode(path)
		if !errors.Is(err, ErrDecode) {
			t.Errorf("Decode(%q) error = %v, want ErrDecode", path, err)
		}
		if l.Cached(path) {
			t.Errorf("failed decode of %q should not be cached", path)
		}
	}
	if _, err := l.DecodeBytes([]byte{1, 2, 3}); !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeBytes error = %v, want ErrDecode", err)
	}
}

func TestDecodeAllPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeImage(t, dir, "a.png", 1, 1, color.RGBA{10, 0, 0, 255}, encodePNG),
		writeImage(t, dir, "b.png", 2, 1, color.RGBA{20, 0, 0, 255}, encodePNG),
		writeImage(t, dir, "c.png", 3, 1, color.RGBA{30, 0, 0, 255}, encodePNG),
	}

	got, err := NewLoader(WithWorkers(2)).DecodeAll(paths...)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	for i, staging := range got {
		if staging.Width != uint32(i+1) {
			t.Errorf("result %d width = %d, want %d", i, staging.Width, i+1)
		}
		if staging.Pixels[0] != byte(10*(i+1)) {
			t.Errorf("result %d red = %d, want %d", i, staging.Pixels[0], 10*(i+1))
		}
	}
}

func TestDecodeAllReportsFailuresIndividually(t *testing.T) {
	dir := t.TempDir()
	good := writeImage(t, dir, "good.png", 2, 2, color.RGBA{0, 255, 0, 255}, encodePNG)

	got, err := NewLoader().DecodeAll(good, filepath.Join(dir, "missing.png"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("DecodeAll error = %v, want ErrDecode", err)
	}
	if got[0].Width != 2 {
		t.Errorf("good image width = %d, want 2", got[0].Width)
	}
	if got[1].Pixels != nil {
		t.Error("failed image should be zero-valued")
	}
}

func TestWithMaxSizeDownsamples(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "wide.png", 400, 100, color.RGBA{0, 0, 0, 255}, encodePNG)

	got, err := NewLoader(WithMaxSize(200, 0)).Decode(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 200 || got.Height != 50 {
		t.Errorf("size = %dx%d, want 200x50", got.Width, got.Height)
	}
	if !got.Valid() {
		t.Error("downsampled staging data is malformed")
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{100, 50, 0, 0, 100, 50},
		{100, 50, 200, 200, 100, 50},
		{100, 50, 50, 0, 50, 25},
		{100, 50, 0, 10, 20, 10},
		{1000, 1, 10, 10, 10, 1},
	}
	for _, tt := range tests {
		gw, gh := fitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
		if gw != tt.wantW || gh != tt.wantH {
			t.Errorf("fitWithin(%d,%d,%d,%d) = %d,%d want %d,%d", tt.w, tt.h, tt.maxW, tt.maxH, gw, gh, tt.wantW, tt.wantH)
		}
	}
}
