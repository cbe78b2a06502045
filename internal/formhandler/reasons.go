package formhandler

// DisplayReasonCount is the number of drivers shown for every forecast.
const DisplayReasonCount = 3

// FallbackReasons pad the display list when the response has too few drivers.
var FallbackReasons = []string{"Employment", "Education", "Climate stress"}

// DisplayReasons merges incoming drivers with FallbackReasons: incoming entries
// are deduplicated in order and truncated to DisplayReasonCount, then fallbacks
// not already present are appended until the list is full.
func DisplayReasons(incoming []string) []string {
	merged := make([]string, 0, DisplayReasonCount)
	seen := make(map[string]bool, DisplayReasonCount)

	add := func(r string) {
		if len(merged) < DisplayReasonCount && !seen[r] {
			seen[r] = true
			merged = append(merged, r)
		}
	}
	for _, r := range incoming {
		add(r)
	}
	for _, r := range FallbackReasons {
		add(r)
	}
	return merged
}
