package screenshot

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// encode converts img to a Mat, downscales it if needed and encodes it.
func encode(img image.Image, cfg Config) (*Image, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert screenshot: %w", err)
	}
	defer mat.Close()

	out := mat
	b := img.Bounds()
	w, h := scaledSize(b.Dx(), b.Dy(), cfg.MaxWidth)
	if w != b.Dx() {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
		out = resized
	}

	var (
		buf  *gocv.NativeByteBuffer
		mime string
	)
	switch cfg.Format {
	case "jpeg":
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, out, []int{gocv.IMWriteJpegQuality, cfg.Quality})
		mime = "image/jpeg"
	default:
		buf, err = gocv.IMEncode(gocv.PNGFileExt, out)
		mime = "image/png"
	}
	if err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	return &Image{Data: data, MIMEType: mime, Width: w, Height: h}, nil
}
