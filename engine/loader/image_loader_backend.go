package loader

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/Carmen-Shannon/oxy2d/common"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imageLoaderBackend decodes any format registered with the image package and converts the
// result to RGBA. Images larger than the configured maximum are scaled down to fit.
type imageLoaderBackend struct {
	maxWidth, maxHeight int
}

var _ loaderBackend = &imageLoaderBackend{}

func newImageLoaderBackend(maxWidth, maxHeight int) *imageLoaderBackend {
	return &imageLoaderBackend{maxWidth: maxWidth, maxHeight: maxHeight}
}

func (b *imageLoaderBackend) Decode(r io.Reader) (common.TextureStagingData, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return common.TextureStagingData{}, "", err
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return common.TextureStagingData{}, format, fmt.Errorf("%s image has no pixels", format)
	}
	return b.Convert(img), format, nil
}

// Convert draws img into a fresh RGBA image anchored at the origin so Pix rows are tightly packed.
// Images exceeding the maximum extent are resampled with Catmull-Rom preserving aspect ratio.
func (b *imageLoaderBackend) Convert(img image.Image) common.TextureStagingData {
	src := img.Bounds()
	w, h := fitWithin(src.Dx(), src.Dy(), b.maxWidth, b.maxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	if w == src.Dx() && h == src.Dy() {
		xdraw.Draw(dst, dst.Bounds(), img, src.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, src, xdraw.Src, nil)
	}

	return common.TextureStagingData{
		Pixels: dst.Pix,
		Width:  uint32(w),
		Height: uint32(h),
	}
}

// fitWithin scales (w, h) down to fit inside (maxW, maxH), keeping the aspect ratio.
// A non-positive maximum leaves that axis unbounded.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 && h > maxH {
		scale = min(scale, float64(maxH)/float64(h))
	}
	if scale == 1.0 {
		return w, h
	}
	return max(int(float64(w)*scale), 1), max(int(float64(h)*scale), 1)
}
