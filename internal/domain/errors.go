package domain

import "errors"

var (
	// ErrNamespaceNotFound signals a search against an unknown namespace.
	ErrNamespaceNotFound = errors.New("namespace not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrInvalidChunkConfig signals malformed chunking options.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")
	// ErrInvalidFusionMethod signals an unknown fusion method name.
	ErrInvalidFusionMethod = errors.New("invalid fusion method")
	// ErrKeywordSearchNotSupported signals that the backend lacks keyword search.
	ErrKeywordSearchNotSupported = errors.New("keyword search not supported by backend")
)
