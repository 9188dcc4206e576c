package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFpanel_PadsToWidestLine(t *testing.T) {
	SetTheme("mono")
	defer SetTheme("classic")

	var buf bytes.Buffer
	Fpanel(&buf, []string{"ab", "abcd"})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"+------+",
		"| ab   |",
		"| abcd |",
		"+------+",
	}, lines)
}

func TestFpanel_IgnoresANSIWidth(t *testing.T) {
	SetTheme("mono")
	defer SetTheme("classic")

	var buf bytes.Buffer
	Fpanel(&buf, []string{"\033[31mab\033[0m", "abc"})
	assert.Contains(t, buf.String(), "| \033[31mab\033[0m  |")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
}

func TestSetTheme_UnknownFallsBack(t *testing.T) {
	SetTheme("sparkly")
	assert.Equal(t, "classic", Current().Name)
	SetTheme("NEON")
	assert.Equal(t, "neon", Current().Name)
	SetTheme("classic")
}

func TestC_DisabledIsPlain(t *testing.T) {
	SetColorForcing(true, true)
	defer SetColorForcing(false, false)
	assert.Equal(t, "x", C(fgRed, "x"))

	SetColorForcing(true, false)
	assert.Equal(t, fgRed+"x"+reset, C(fgRed, "x"))
}
