package gantt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/julianstephens/shopline/internal/constants"
)

func TestProductHueDeterministic(t *testing.T) {
	for _, name := range []string{"Widget", "ギア", "", "Bracket A-12"} {
		first := ProductColor(name)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, ProductColor(name))
		}
	}
}

func TestProductHue(t *testing.T) {
	// "AB" = 65 + 66
	assert.Equal(t, 131, ProductHue("AB"))
	// "default" sums to 741
	assert.Equal(t, 741%360, ProductHue(""))
	assert.Equal(t, ProductHue("default"), ProductHue(""))
	// U+1F600 is a surrogate pair, 0xD83D + 0xDE00
	assert.Equal(t, (0xD83D+0xDE00)%360, ProductHue("\U0001F600"))
}

func TestProductHueNormalizes(t *testing.T) {
	// precomposed é and e + combining acute
	assert.Equal(t, ProductHue("caf\u00e9"), ProductHue("cafe\u0301"))
}

func TestProductColorFormat(t *testing.T) {
	c := ProductColor("AB")
	assert.Equal(t, "hsl(131, 70%, 50%)", c.CSS)
	assert.Len(t, c.Hex, 7)
	assert.Equal(t, "#", c.Hex[:1])
}

func TestProcessColor(t *testing.T) {
	tests := map[string]string{
		"切削":    "#ef4444",
		"組立":    "#3b82f6",
		"検査":    "#10b981",
		"塗装":    "#f59e0b",
		"梱包":    "#8b5cf6",
		"":      "#6b7280",
		"Weld":  "#6b7280",
		"切削 ": "#6b7280",
	}
	for name, want := range tests {
		c := ProcessColor(name)
		assert.Equal(t, want, c.CSS, name)
		assert.Equal(t, want, c.Hex, name)
	}
}

func TestColorForMode(t *testing.T) {
	assert.Equal(t, ProcessColor("組立"), ColorFor(constants.ColorByProcess, "Widget", "組立"))
	assert.Equal(t, ProductColor("Widget"), ColorFor(constants.ColorByProduct, "Widget", "組立"))
	assert.Equal(t, ProductColor("Widget"), ColorFor("", "Widget", "組立"))
}
