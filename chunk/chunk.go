// Package chunk splits long reply text into bounded-length segments for
// delivery as successive chat messages.
package chunk

// DefaultMaxLen is the segment length used for chat replies. Telegram caps
// messages at 4096 characters; 4000 leaves headroom.
const DefaultMaxLen = 4000

// Split cuts text into consecutive, non-overlapping segments of at most
// maxLen characters each, preserving order. Concatenating the result
// reproduces text exactly. Splitting happens on rune boundaries, so a
// multi-byte character is never cut in half. An empty text yields no
// segments. maxLen <= 0 defaults to DefaultMaxLen.
func Split(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	runes := []rune(text)
	segments := make([]string, 0, (len(runes)+maxLen-1)/maxLen)
	for start := 0; start < len(runes); start += maxLen {
		end := start + maxLen
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments
}
