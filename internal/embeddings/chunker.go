package embeddings

// Chunk splits text into pieces of at most size runes. Lines are kept whole
// when they fit, so a nutrient row is never cut in half.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = 1
	}
	var chunks []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}

	for _, line := range splitLines(text) {
		r := []rune(line)
		if len(cur)+len(r) > size {
			flush()
		}
		for len(r) > size {
			chunks = append(chunks, string(r[:size]))
			r = r[size:]
		}
		cur = append(cur, r...)
	}
	flush()
	return chunks
}

// splitLines keeps the trailing newline on each line.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
