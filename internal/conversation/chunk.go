package conversation

// MaxMessageLength is the chunk size for long generated answers, in characters.
const MaxMessageLength = 4000

// SplitMessage cuts text into consecutive chunks of at most size runes.
// Boundaries fall exactly every size runes, regardless of words.
func SplitMessage(text string, size int) []string {
	if size <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
