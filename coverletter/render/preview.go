package render

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// PreviewScale is the pixel density of previews relative to points.
const PreviewScale = 1.5

var (
	fontsOnce    sync.Once
	regularFont  *truetype.Font
	boldFont     *truetype.Font
	fontParseErr error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		regularFont, fontParseErr = truetype.Parse(goregular.TTF)
		if fontParseErr != nil {
			return
		}
		boldFont, fontParseErr = truetype.Parse(gobold.TTF)
	})
	return fontParseErr
}

// ggMeasurer measures in points using faces rasterised at scale.
type ggMeasurer struct {
	dc    *gg.Context
	scale float64
	faces map[TextStyle]font.Face
}

func newGGMeasurer(dc *gg.Context, scale float64) *ggMeasurer {
	return &ggMeasurer{dc: dc, scale: scale, faces: map[TextStyle]font.Face{}}
}

func (m *ggMeasurer) face(style TextStyle) font.Face {
	if f, ok := m.faces[style]; ok {
		return f
	}
	ttf := regularFont
	if style.Bold {
		ttf = boldFont
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: style.Size * m.scale, DPI: 72})
	m.faces[style] = f
	return f
}

func (m *ggMeasurer) TextWidth(text string, style TextStyle) float64 {
	m.dc.SetFontFace(m.face(style))
	w, _ := m.dc.MeasureString(text)
	return w / m.scale
}

func (m *ggMeasurer) close() {
	for _, f := range m.faces {
		_ = f.Close()
	}
}

// PreviewPNG rasterises the same single-page layout the fallback PDF uses.
func PreviewPNG(doc Document, geo Geometry) ([]byte, bool, error) {
	if err := loadFonts(); err != nil {
		return nil, false, fmt.Errorf("parse preview fonts: %w", err)
	}
	width := int(geo.Width * PreviewScale)
	height := int(geo.Height * PreviewScale)
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	measure := newGGMeasurer(dc, PreviewScale)
	defer measure.close()

	layout := Compose(doc, geo, measure)
	dc.SetRGB(0.1, 0.1, 0.1)
	for _, line := range layout.Lines {
		dc.SetFontFace(measure.face(line.Style))
		dc.DrawString(line.Text, line.X*PreviewScale, line.Y*PreviewScale)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, false, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), layout.Overflow, nil
}
