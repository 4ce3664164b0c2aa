package layout

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/joseph-ayodele/papertrans/internal/entity"
)

// downscale shrinks img so its longest side is at most maxSide.
// It returns the image to send and the factor applied (1 when unchanged).
func downscale(img image.Image, maxSide int) (image.Image, float64) {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if maxSide <= 0 || longest <= maxSide {
		return img, 1
	}
	f := float64(maxSide) / float64(longest)
	w := max(1, int(float64(b.Dx())*f+0.5))
	h := max(1, int(float64(b.Dy())*f+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst, float64(w) / float64(b.Dx())
}

// crop copies box (native pixel coordinates) out of img.
func crop(img image.Image, box entity.BBox) (image.Image, error) {
	b := img.Bounds()
	box = box.Clamp(float64(b.Dx()), float64(b.Dy()))
	r := image.Rect(int(box.X1), int(box.Y1), int(box.X2+0.5), int(box.Y2+0.5)).Add(b.Min).Intersect(b)
	if r.Empty() {
		return nil, fmt.Errorf("crop rectangle %v is empty within %v", r, b)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
