package iconsvc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
)

const (
	placeholderSize  = 128
	placeholderLabel = "NO IMAGE"
)

//nolint:gochecknoglobals
var (
	placeholderBackground = color.RGBA{R: 0xd9, G: 0xd9, B: 0xd9, A: 0xff}
	placeholderForeground = color.RGBA{R: 0x59, G: 0x59, B: 0x59, A: 0xff}
)

// LoadFallbackIcon reads the fallback icon from path.
// If path is empty a placeholder image is generated instead.
func LoadFallbackIcon(path string) (domain.FallbackIcon, error) {
	if path == "" {
		body, err := GeneratePlaceholderIcon()
		if err != nil {
			return domain.FallbackIcon{}, fmt.Errorf("generate placeholder: %w", err)
		}

		return domain.NewFallbackIcon(body), nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return domain.FallbackIcon{}, fmt.Errorf("read fallback icon: %w", err)
	}

	return domain.NewFallbackIcon(body), nil
}

// GeneratePlaceholderIcon renders a grey square JPEG labelled "NO IMAGE".
// The output is deterministic, so its digest is stable across restarts.
func GeneratePlaceholderIcon() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderBackground), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderForeground),
		Face: face,
		Dot:  fixed.Point26_6{},
	}

	width := drawer.MeasureString(placeholderLabel).Ceil()
	drawer.Dot = fixed.P(
		(placeholderSize-width)/2,
		(placeholderSize+face.Metrics().Ascent.Ceil())/2,
	)
	drawer.DrawString(placeholderLabel)

	var buf bytes.Buffer

	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}
