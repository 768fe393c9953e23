package utils

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// avatarPalette is the set of colors handed out to profiles created without one.
var avatarPalette = []string{
	"#FF6B6B", // coral
	"#FFA94D", // orange
	"#FFD43B", // sunflower
	"#69DB7C", // mint
	"#38D9A9", // teal
	"#4DABF7", // sky
	"#748FFC", // periwinkle
	"#DA77F2", // lilac
	"#F783AC", // pink
}

// AvatarColorFor picks a palette color for name. The same name always gets
// the same color.
func AvatarColorFor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return avatarPalette[h.Sum32()%uint32(len(avatarPalette))]
}

// NormalizeHexColor returns color as upper-case "#RRGGBB". Short "#RGB"
// colors are expanded.
// Example: "#fa0" -> "#FFAA00"
func NormalizeHexColor(color string) (string, error) {
	c := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(c) == 3 {
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	}
	if len(c) != 6 {
		return "", fmt.Errorf("invalid hex color %q", color)
	}
	for _, r := range c {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", fmt.Errorf("invalid hex color %q", color)
		}
	}
	return "#" + strings.ToUpper(c), nil
}
