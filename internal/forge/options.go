package forge

// Platforms a pack can target, in display order.
var Platforms = []string{"TikTok", "Instagram Reels", "YouTube Shorts"}

// Tones offered on the form, in display order.
var Tones = []string{
	"educational + punchy",
	"edgy + witty",
	"smooth and aspirational",
	"hype and fast-paced",
}

// DefaultCTA is used when the visitor leaves the CTA blank.
const DefaultCTA = "Follow for more breakdowns like this."

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
