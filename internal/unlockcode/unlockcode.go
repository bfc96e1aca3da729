// Package unlockcode generates the human-readable codes buyers type in to
// unlock full packs.
package unlockcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// words are short, unambiguous and easy to read aloud or copy from an email.
var words = []string{
	"anchor", "angle", "arcade", "atlas", "badge", "banner", "beacon", "blazer",
	"bloom", "bolt", "border", "bounce", "bright", "bubble", "cabin", "camera",
	"canvas", "canyon", "carbon", "castle", "cinema", "circle", "clever", "cobalt",
	"comet", "copper", "coral", "cosmos", "cotton", "crayon", "credit", "crisp",
	"cycle", "dancer", "dazzle", "delta", "denim", "drift", "eagle", "echo",
	"ember", "engine", "falcon", "fiber", "flash", "flint", "focus", "forest",
	"frame", "fresh", "galaxy", "garden", "glide", "golden", "gravel", "harbor",
	"hazel", "helix", "hollow", "honey", "horizon", "island", "ivory", "jacket",
	"jungle", "kernel", "ladder", "lagoon", "lantern", "laser", "lemon", "lens",
	"linen", "lively", "lotus", "magnet", "maple", "marble", "meadow", "meteor",
	"mirror", "mosaic", "motion", "nectar", "noble", "nova", "oasis", "ocean",
	"orbit", "orchid", "pebble", "pepper", "pixel", "planet", "plaza", "polar",
	"prism", "pulse", "quartz", "radar", "raven", "reel", "ribbon", "ripple",
	"rocket", "saddle", "scene", "shadow", "signal", "silver", "sketch", "solar",
	"sonic", "spark", "spiral", "studio", "summit", "sunset", "tempo", "thunder",
	"timber", "tundra", "velvet", "vivid", "voyage", "willow", "winter", "zenith",
}

// Generate returns a code such as "CANVAS-ORBIT-TEMPO-4821": three distinct
// words and a four-digit number.
func Generate() (string, error) {
	parts := make([]string, 0, 4)
	used := make(map[int]bool, 3)

	for len(parts) < 3 {
		idx, err := randInt(len(words))
		if err != nil {
			return "", fmt.Errorf("random word index: %w", err)
		}
		if used[idx] {
			continue
		}
		used[idx] = true
		parts = append(parts, strings.ToUpper(words[idx]))
	}

	num, err := randInt(9000)
	if err != nil {
		return "", fmt.Errorf("random number: %w", err)
	}
	parts = append(parts, fmt.Sprintf("%d", num+1000))

	return strings.Join(parts, "-"), nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
