package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const fallbackFamily = "Times"

type fpdfMeasurer struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
}

func (m *fpdfMeasurer) TextWidth(text string, style TextStyle) float64 {
	m.pdf.SetFont(fallbackFamily, fpdfStyle(style), style.Size)
	return m.pdf.GetStringWidth(m.translate(text))
}

func fpdfStyle(style TextStyle) string {
	if style.Bold {
		return "B"
	}
	return ""
}

// DrawPDF builds a single-page PDF by placing text directly with the
// low-level document API. It needs no browser.
func DrawPDF(doc Document, geo Geometry) ([]byte, bool, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: geo.Width, Ht: geo.Height},
	})
	pdf.SetMargins(geo.Margin, geo.Margin, geo.Margin)
	pdf.SetAutoPageBreak(false, 0)
	if doc.Title != "" {
		pdf.SetTitle(doc.Title, true)
	}
	pdf.SetCreator("coverletter-backend", true)
	pdf.AddPage()

	translate := pdf.UnicodeTranslatorFromDescriptor("")
	layout := Compose(doc, geo, &fpdfMeasurer{pdf: pdf, translate: translate})
	for _, line := range layout.Lines {
		pdf.SetFont(fallbackFamily, fpdfStyle(line.Style), line.Style.Size)
		pdf.Text(line.X, line.Y, translate(line.Text))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, false, fmt.Errorf("write fallback pdf: %w", err)
	}
	return buf.Bytes(), layout.Overflow, nil
}
