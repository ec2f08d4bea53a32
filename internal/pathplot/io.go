package pathplot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	// backdrop decoders
	_ "image/jpeg"

	"github.com/HugoSmits86/nativewebp"
	_ "github.com/ftrvxmtrx/tga"
)

// LoadBackdrop decodes a PNG, JPEG or TGA backdrop image
func LoadBackdrop(path string) (image.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pathplot: read %s: %w", path, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("pathplot: decode %s: %w", path, err)
	}
	return img, nil
}

// Encode writes img as PNG when name ends in ".png", otherwise lossless WebP
func Encode(w io.Writer, name string, img image.Image) error {
	if strings.EqualFold(filepath.Ext(name), ".png") {
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("pathplot: PNG encode: %w", err)
		}
		return nil
	}
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("pathplot: WebP encode: %w", err)
	}
	return nil
}

// Save writes img to path, creating parent directories
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("pathplot: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pathplot: %w", err)
	}
	defer f.Close()
	return Encode(f, path, img)
}
