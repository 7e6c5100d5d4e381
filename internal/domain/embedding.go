package domain

// EmbeddingResult is the outcome of vectorizing a text.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
