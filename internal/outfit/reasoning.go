package outfit

import (
	"fmt"
	"strings"
)

// ComposeReasoning explains an outfit in one line: the context it was built
// for, the categories and colors it uses, and a verdict derived from the
// final score.
func ComposeReasoning(items []Candidate, occasion Occasion, weather Weather, final float64) string {
	categories := make([]string, 0, len(items))
	colors := make([]string, 0, len(items))
	for _, it := range items {
		categories = append(categories, it.Category)
		if it.Color != "" {
			colors = append(colors, string(it.Color))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Outfit generated for occasion %s with weather %s. ", occasion, weather)
	fmt.Fprintf(&b, "Items: %s. ", strings.Join(categories, ", "))
	if len(colors) > 0 {
		fmt.Fprintf(&b, "Colors: %s. ", strings.Join(colors, ", "))
	}
	b.WriteString(verdict(final))
	return b.String()
}

func verdict(final float64) string {
	switch {
	case final > 0.8:
		return "Excellent compatibility"
	case final > 0.6:
		return "Good combination"
	default:
		return "Valid combination"
	}
}
