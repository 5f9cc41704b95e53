package analyze

import (
	"regexp"
	"strings"
)

// dropNoiseLines removes stdout lines containing any noise substring,
// case-insensitively, and returns the remaining text.
func dropNoiseLines(output string) string {
	lines := strings.Split(output, "\n")
	kept := lines[:0]
	for _, line := range lines {
		lower := strings.ToLower(line)
		noisy := false
		for _, sub := range noiseSubstrings {
			if strings.Contains(lower, sub) {
				noisy = true
				break
			}
		}
		if !noisy {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// recommendationSection captures the توصیه block up to the next section marker.
var recommendationSection = regexp.MustCompile(`(?is)(?:🎯|###)\s*توصیه.*?(?:###|📝|💰|$)`)

var (
	skipPattern = regexp.MustCompile(`(?i)skip|رد کن|نزن`)
	takePattern = regexp.MustCompile(`(?i)take|قبول کن|بزن`)
)

// parseRecommendation extracts the star rating and Take/Skip decision from the
// analysis text. Best effort: missing sections yield zero stars and no decision.
func parseRecommendation(text string) (stars int, decision string) {
	section := recommendationSection.FindString(text)
	if section == "" {
		return 0, ""
	}

	stars = strings.Count(section, "⭐")

	switch {
	case skipPattern.MatchString(section):
		decision = "Skip"
	case takePattern.MatchString(section):
		decision = "Take"
	}
	return stars, decision
}
