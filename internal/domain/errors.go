package domain

import "errors"

var (
	// ErrEmptyContent signals whitespace-only message content. Ingestion
	// swallows it; the message never reaches a buffer.
	ErrEmptyContent = errors.New("empty message content")
	// ErrMissingChannel signals a message without channel identity.
	ErrMissingChannel = errors.New("missing channel identity")
	// ErrMissingTenant signals a message without tenant identity.
	ErrMissingTenant = errors.New("missing tenant identity")
	// ErrVectorDimMismatch signals a vector dimension mismatch. Fatal for the
	// affected tenant's index: operator intervention required.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrAnswerProviderError signals an answer generation failure.
	ErrAnswerProviderError = errors.New("answer provider error")
	// ErrStorageUnavailable signals a transient storage failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
