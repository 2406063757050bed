package models

import "errors"

var (
	// ErrUnreadablePDF marks a document that yielded no extractable text.
	ErrUnreadablePDF = errors.New("unreadable pdf")

	// ErrIndexWrite marks a failed insert or persist on the vector index.
	ErrIndexWrite = errors.New("index write error")

	// ErrIndexLoad marks a corrupt or unloadable persisted index.
	ErrIndexLoad = errors.New("index load error")

	// ErrLLMRequest marks a failed language model call, transport or quota.
	ErrLLMRequest = errors.New("llm request error")

	// ErrConfig marks invalid or missing configuration, fatal at startup.
	ErrConfig = errors.New("configuration error")

	// ErrEmbedderMismatch is returned when the persisted index was built by a
	// different embedding provider than the one configured now.
	ErrEmbedderMismatch = errors.New("embedding provider mismatch")
)
