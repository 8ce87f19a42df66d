package resource

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/dtnitsch/html-page/pkg/urlfactory"
)

// imageSize reads the dimensions from the header of the resolved file.
func imageSize(res *urlfactory.Resolution) (int, int, error) {
	f, err := os.Open(res.LocalPath)
	if err != nil {
		return 0, 0, fmt.Errorf("error opening image: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if res.Compressed {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return 0, 0, fmt.Errorf("error opening compressed image: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("error decoding image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
