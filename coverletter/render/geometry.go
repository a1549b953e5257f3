package render

const pointsPerInch = 72.0

// Geometry describes a page in points.
type Geometry struct {
	Width  float64
	Height float64
	Margin float64
}

// LetterGeometry is US Letter with one-inch margins.
var LetterGeometry = Geometry{
	Width:  8.5 * pointsPerInch,
	Height: 11 * pointsPerInch,
	Margin: 1 * pointsPerInch,
}

// ContentWidth is the printable width between the side margins.
func (g Geometry) ContentWidth() float64 {
	return g.Width - 2*g.Margin
}

// Bottom is the lowest baseline allowed on the page.
func (g Geometry) Bottom() float64 {
	return g.Height - g.Margin
}

func (g Geometry) inches(v float64) float64 {
	return v / pointsPerInch
}
