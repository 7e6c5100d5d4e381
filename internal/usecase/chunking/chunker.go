// Package chunking splits documents into token-bounded, overlap-aware
// segments sized for embedding.
package chunking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/rankfuse/internal/domain"
)

// Options configures the chunker.
type Options struct {
	MaxTokens     int // upper bound per chunk, in estimated tokens
	Overlap       int // tail carried into the next chunk, in estimated tokens
	CharsPerToken int // token length estimate divisor (default 4)
}

// DefaultOptions returns chunk sizing suitable for common embedding models.
func DefaultOptions() Options {
	return Options{MaxTokens: 500, Overlap: 50, CharsPerToken: 4}
}

// Chunk is one bounded segment of a document.
type Chunk struct {
	Text        string
	Index       int
	TotalChunks int
}

// DocumentChunk is a chunk with the document's metadata attached.
type DocumentChunk struct {
	Chunk

	ID       string
	Metadata map[string]any
}

// Chunker splits text on paragraph and sentence boundaries. Stateless
// after construction; safe for concurrent use.
type Chunker struct {
	opts Options
}

// New creates a chunker, validating the options.
func New(opts Options) (*Chunker, error) {
	if opts.CharsPerToken <= 0 {
		opts.CharsPerToken = DefaultOptions().CharsPerToken
	}
	if opts.MaxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive, got %d", domain.ErrInvalidChunkConfig, opts.MaxTokens)
	}
	if opts.Overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative, got %d", domain.ErrInvalidChunkConfig, opts.Overlap)
	}
	if opts.Overlap >= opts.MaxTokens {
		return nil, fmt.Errorf("%w: overlap %d must be below max tokens %d", domain.ErrInvalidChunkConfig, opts.Overlap, opts.MaxTokens)
	}
	return &Chunker{opts: opts}, nil
}

// EstimateTokens approximates the token count of text as
// ceil(len / charsPerToken). Empty text estimates to 0.
func (c *Chunker) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	cpt := c.opts.CharsPerToken
	return (len(text) + cpt - 1) / cpt
}

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	sentenceSplit  = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
)

// ChunkText splits text into chunks of at most MaxTokens estimated
// tokens, preferring paragraph boundaries and falling back to sentence
// boundaries for oversized paragraphs. Each chunk after the first
// starts with an overlap tail of the previous one. Text with no usable
// boundary is emitted as a single oversized chunk rather than dropped.
// Index and TotalChunks are assigned after the full split completes.
func (c *Chunker) ChunkText(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if c.EstimateTokens(text) <= c.opts.MaxTokens {
		return []Chunk{{Text: strings.TrimSpace(text), Index: 0, TotalChunks: 1}}
	}

	var pieces []string
	var current string

	flush := func() {
		if trimmed := strings.TrimSpace(current); trimmed != "" {
			pieces = append(pieces, trimmed)
		}
		current = c.OverlapText(current, c.opts.Overlap)
	}

	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if c.EstimateTokens(para) > c.opts.MaxTokens {
			for _, sentence := range sentenceSplit.FindAllString(para, -1) {
				sentence = strings.TrimSpace(sentence)
				if sentence == "" {
					continue
				}
				if current != "" && c.EstimateTokens(current+" "+sentence) > c.opts.MaxTokens {
					flush()
				}
				current = join(current, " ", sentence)
			}
			continue
		}

		if current != "" && c.EstimateTokens(current+"\n\n"+para) > c.opts.MaxTokens {
			flush()
		}
		current = join(current, "\n\n", para)
	}

	if trimmed := strings.TrimSpace(current); trimmed != "" {
		pieces = append(pieces, trimmed)
	}

	chunks := make([]Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = Chunk{Text: p, Index: i, TotalChunks: len(pieces)}
	}
	return chunks
}

// OverlapText returns the tail of text to seed the next chunk with,
// at most overlapTokens*CharsPerToken characters. When the cut lands
// mid-word and a word boundary exists within the first half of the
// slice, the tail advances past it. Always a suffix of text.
func (c *Chunker) OverlapText(text string, overlapTokens int) string {
	if overlapTokens <= 0 || text == "" {
		return ""
	}

	overlapChars := overlapTokens * c.opts.CharsPerToken
	if overlapChars >= len(text) {
		return text
	}

	tail := text[len(text)-overlapChars:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx < len(tail)/2 {
		tail = tail[idx+1:]
	}
	return tail
}

// ChunkDocument chunks content and attaches the caller's metadata map
// unchanged to every chunk. Empty content yields no chunks; absent
// metadata defaults to an empty map.
func (c *Chunker) ChunkDocument(content string, metadata map[string]any) []DocumentChunk {
	chunks := c.ChunkText(content)
	if len(chunks) == 0 {
		return nil
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	docChunks := make([]DocumentChunk, len(chunks))
	for i, ch := range chunks {
		docChunks[i] = DocumentChunk{
			Chunk:    ch,
			ID:       uuid.New().String(),
			Metadata: metadata,
		}
	}
	return docChunks
}

func join(current, sep, next string) string {
	if current == "" {
		return next
	}
	return current + sep + next
}
