package models

const (
	// PageUnknown is stored when the loader had no page number for a chunk.
	PageUnknown = "N/A"

	// ExcerptLimit caps source content shown on the HTTP surface.
	ExcerptLimit = 300
)

var (
	QAPromptTemplate = `You are a helpful assistant that answers questions based on the provided context from PDF documents.
Use the following pieces of context to answer the question at the end.
If you don't know the answer or if the context doesn't contain relevant information, just say that you don't know, don't try to make up an answer.
Always cite the source document in your answer.

Context:
%s

Question: %s

Answer: `

	// NoContextAnswer is returned without calling the model when the index is empty.
	NoContextAnswer = "I don't know. No documents have been ingested yet, so there is no context to answer from."
)
