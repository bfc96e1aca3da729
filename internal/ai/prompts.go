package ai

import (
	"fmt"
	"strings"
)

// MaxSourceChars is how much of the source text is embedded in a prompt.
const MaxSourceChars = 6000

// DefaultSystemPrompt is sent as the system message when the caller has none.
const DefaultSystemPrompt = "You write viral, platform-specific short-form video scripts with clear beats."

// BuildPackPrompt constructs the user prompt for one content pack. The source
// is silently cut to its first MaxSourceChars characters; platform, niche,
// tone and cta are embedded verbatim.
func BuildPackPrompt(source, niche, platform, tone, cta string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are ReelForge. Turn the SOURCE into a content pack for %s in the niche \"%s\".\n", platform, niche))
	sb.WriteString(fmt.Sprintf("Tone: %s. Audience: beginners to intermediates.\n", tone))
	sb.WriteString("Return a compact JSON object with these keys:\n")
	sb.WriteString("- scripts: array of exactly 3 items. Each item has:\n")
	sb.WriteString("  - title\n")
	sb.WriteString("  - hook (12 words or fewer, punchy)\n")
	sb.WriteString(fmt.Sprintf("  - beats: array of steps with %s-style timing cues like (0-3s), (3-7s)\n", platform))
	sb.WriteString("  - broll_prompts: array of 3-5 scene prompts\n")
	sb.WriteString("  - caption: 2-3 sentences, line-broken\n")
	sb.WriteString("  - hashtags: 10 niche tags\n")
	sb.WriteString(fmt.Sprintf("  - cta: closing line; prefer this CTA word for word: \"%s\"\n", cta))
	sb.WriteString("- hooks_alt: 10 alternative hooks\n")
	sb.WriteString("- captions_alt: 5 alternative captions\n")
	sb.WriteString("Keep it platform-native and avoid jargon. Do not apologize or add disclaimers.\n")
	sb.WriteString("Return ONLY the JSON object, with no markdown fences or commentary.\n")
	sb.WriteString("SOURCE:\n")
	sb.WriteString(TruncateSource(source))
	sb.WriteString("\n")

	return sb.String()
}

// TruncateSource returns the first MaxSourceChars characters of s.
func TruncateSource(s string) string {
	if len(s) <= MaxSourceChars {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxSourceChars {
			return s[:i]
		}
		n++
	}
	return s
}
