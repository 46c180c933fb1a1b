package loaders

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
)

type ImageLoader struct{}

// Load decodes a PNG or BMP file. Decoders register themselves with the
// image package so the format is sniffed from the header.
func (il *ImageLoader) Load(path string) (*Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", path, err)
	}
	bounds := img.Bounds()

	return &Resource{
		Type:     ResourceTypeImage,
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "." + format,
		FullPath: path,
		DataSize: uint64(bounds.Dx() * bounds.Dy() * 4),
		Data:     img,
	}, nil
}

func (il *ImageLoader) Unload(r *Resource) error {
	r.Data = nil
	return nil
}
