package rag

import "strings"

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 100
)

// defaultSeparators is ordered coarse to fine; the empty string means
// "split anywhere" and must stay last.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits extracted document text into bounded, overlapping segments.
// It prefers the coarsest separator that keeps segments under the size bound
// and only falls back to finer ones for oversized pieces. Chunking is a pure
// function of the input: the same text always yields the same sequence.
type Chunker struct {
	size       int
	overlap    int
	separators []string
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{
		size:       size,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Chunk returns the chunk sequence for text. Empty or whitespace-only input
// yields no chunks; chunks are trimmed and never empty.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, chunk := range c.split(text, c.separators) {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

func (c *Chunker) split(text string, separators []string) []string {
	sep := ""
	var finer []string
	for i, s := range separators {
		if s == "" {
			break
		}
		if strings.Contains(text, s) {
			sep = s
			finer = separators[i+1:]
			break
		}
	}
	if sep == "" {
		return c.windowSplit(text)
	}

	parts := strings.Split(text, sep)
	sepLen := runeLen(sep)

	var chunks []string
	var window []string

	flush := func() {
		if len(window) > 0 {
			chunks = append(chunks, strings.Join(window, sep))
		}
	}

	for _, part := range parts {
		partLen := runeLen(part)

		if partLen > c.size {
			// This piece alone exceeds the bound; emit what we have and
			// break the piece down with the finer separators.
			flush()
			window = nil
			chunks = append(chunks, c.split(part, finer)...)
			continue
		}

		if len(window) > 0 && joinedLen(window, sepLen)+sepLen+partLen > c.size {
			flush()
			// Keep a tail of previous pieces as overlap for the next chunk.
			for len(window) > 0 &&
				(joinedLen(window, sepLen) > c.overlap ||
					joinedLen(window, sepLen)+sepLen+partLen > c.size) {
				window = window[1:]
			}
		}
		window = append(window, part)
	}
	flush()
	return chunks
}

// windowSplit is the character-level fallback: a sliding rune window of the
// chunk size advancing by size minus overlap.
func (c *Chunker) windowSplit(text string) []string {
	runes := []rune(text)
	step := c.size - c.overlap
	if step <= 0 {
		step = c.size
	}
	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func runeLen(s string) int {
	return len([]rune(s))
}

func joinedLen(parts []string, sepLen int) int {
	if len(parts) == 0 {
		return 0
	}
	total := sepLen * (len(parts) - 1)
	for _, p := range parts {
		total += runeLen(p)
	}
	return total
}
