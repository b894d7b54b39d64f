package engine

import "strings"

// findStop returns the first stop sequence found in text, if any.
func findStop(text string, stops []string) (string, bool) {
	first := -1
	found := ""
	for _, stop := range stops {
		if stop == "" {
			continue
		}
		if idx := strings.Index(text, stop); idx >= 0 && (first < 0 || idx < first) {
			first = idx
			found = stop
		}
	}
	return found, first >= 0
}

// truncateStop cuts text at the start of the given stop sequence.
func truncateStop(text, stop string) string {
	idx := strings.Index(text, stop)
	if idx < 0 {
		return text
	}
	return text[:idx]
}

// containsStopSuffix reports whether some suffix of text is a prefix of a
// stop sequence, i.e. the next pieces could still complete a stop match and
// the text must be held back from the stream.
func containsStopSuffix(text string, stops []string) bool {
	for _, stop := range stops {
		for i := len(stop) - 1; i > 0; i-- {
			if strings.HasSuffix(text, stop[:i]) {
				return true
			}
		}
	}
	return false
}
