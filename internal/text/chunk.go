package text

import "strings"

// SplitSentences splits text on sentence-ending punctuation (., !, ?),
// keeping the terminator attached to its sentence. A run of terminators
// (e.g. "..." or "?!") stays with the sentence it ends. Empty segments are
// dropped; text after the last terminator forms a final sentence.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	inRun := false

	for i, r := range text {
		term := r == '.' || r == '!' || r == '?'
		if term {
			inRun = true
			continue
		}
		if inRun {
			s := strings.TrimSpace(text[start:i])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i
			inRun = false
		}
	}

	if start < len(text) {
		s := strings.TrimSpace(text[start:])
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}

// ChunkBySentence splits text into chunks at sentence boundaries, grouping
// consecutive sentences while staying within maxChars per chunk. maxChars <= 0
// disables splitting. A sentence that alone exceeds maxChars is kept intact
// as its own chunk.
func ChunkBySentence(text string, maxChars int) []string {
	if maxChars <= 0 {
		return []string{text}
	}

	sentences := SplitSentences(text)
	if len(sentences) <= 1 {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	for _, s := range sentences {
		if current.Len() == 0 {
			current.WriteString(s)
			continue
		}
		if current.Len()+1+len(s) > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(s)
		} else {
			current.WriteByte(' ')
			current.WriteString(s)
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
