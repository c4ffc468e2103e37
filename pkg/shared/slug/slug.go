package slug

import (
	"fmt"
	"strings"
)

// Make lowers s and collapses anything that is not alphanumeric or a hyphen
// into single hyphens, capped at 30 bytes. Safe for filenames.
func Make(s string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > 30 {
		out = strings.Trim(out[:30], "-")
	}
	return out
}

// ScreenshotFilename builds the stable per-step image name, e.g.
// "001_click_login-button.png".
func ScreenshotFilename(sequence int, kind, label string) string {
	if s := Make(label); s != "" {
		return fmt.Sprintf("%03d_%s_%s.png", sequence, kind, s)
	}
	return fmt.Sprintf("%03d_%s.png", sequence, kind)
}
