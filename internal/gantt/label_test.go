package gantt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildAndSplitLabel(t *testing.T) {
	label := BuildLabel("切削", "ORD-001", "ACME")
	display, customer := SplitLabel(label)
	assert.Equal(t, "切削 - ORD-001", display)
	assert.Equal(t, "ACME", customer)
}

func TestLabelEscapesSeparator(t *testing.T) {
	label := BuildLabel("Cut\x1fting", "ORD\x1f1", "AC\x1fME")
	display, customer := SplitLabel(label)
	assert.Equal(t, "Cut ting - ORD 1", display)
	assert.Equal(t, "AC ME", customer)
}

func TestSplitLabelWithoutSeparator(t *testing.T) {
	display, customer := SplitLabel("ORD-001 (Widget)")
	assert.Equal(t, "ORD-001 (Widget)", display)
	assert.Empty(t, customer)
}
