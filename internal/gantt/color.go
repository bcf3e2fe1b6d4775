package gantt

import (
	"fmt"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/text/unicode/norm"

	"github.com/julianstephens/shopline/internal/constants"
)

// Color is a bar color in CSS form plus its #rrggbb equivalent for terminals
type Color struct {
	CSS string
	Hex string
}

const fallbackProcessColor = "#6b7280"

var processColors = map[string]string{
	"切削": "#ef4444",
	"組立": "#3b82f6",
	"検査": "#10b981",
	"塗装": "#f59e0b",
	"梱包": "#8b5cf6",
}

var containerColor = hexColor(fallbackProcessColor)

func hexColor(css string) Color {
	c, err := colorful.Hex(css)
	if err != nil {
		return Color{CSS: css, Hex: fallbackProcessColor}
	}
	return Color{CSS: css, Hex: c.Hex()}
}

// ProductHue hashes a product name into a hue in [0, 360). The hash is the
// sum of the UTF-16 code units of the NFC form of the name, so the same name
// always maps to the same hue and distinct names may collide.
func ProductHue(name string) int {
	if name == "" {
		name = constants.PlaceholderProductName
	}
	sum := 0
	for _, u := range utf16.Encode([]rune(norm.NFC.String(name))) {
		sum += int(u)
	}
	return sum % 360
}

// ProductColor is the by-product bar color for name
func ProductColor(name string) Color {
	hue := ProductHue(name)
	return Color{
		CSS: fmt.Sprintf("hsl(%d, 70%%, 50%%)", hue),
		Hex: colorful.Hsl(float64(hue), 0.7, 0.5).Clamped().Hex(),
	}
}

// ProcessColor is the by-process bar color for name. Unknown or empty names get gray.
func ProcessColor(name string) Color {
	css, ok := processColors[norm.NFC.String(name)]
	if !ok {
		css = fallbackProcessColor
	}
	return hexColor(css)
}

// ColorFor picks the bar color of a record's product or process name
func ColorFor(mode constants.ColorMode, product, process string) Color {
	if mode == constants.ColorByProcess {
		return ProcessColor(process)
	}
	return ProductColor(product)
}
