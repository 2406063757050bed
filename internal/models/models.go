package models

// Chunk is a bounded span of extracted document text with provenance metadata.
type Chunk struct {
	Content    string
	Source     string // base name of the originating document
	FullPath   string // absolute path of the originating document
	ChunkIndex int    // zero-based, global across pages of one document
	Page       string // page number as text, "N/A" when the loader had none
}

// Source identifies one retrieved chunk in an answer.
type Source struct {
	Filename string `json:"filename"`
	Page     string `json:"page"`
	Content  string `json:"content"`
}

// Answer is the result of one question: the model's text plus every chunk
// that was placed in its context, whether or not the model used it.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Turn is one question/answer exchange kept in the session history.
type Turn struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
}

// SearchResult pairs a stored chunk with its similarity to the query vector.
type SearchResult struct {
	Chunk      Chunk
	Similarity float32
}

// IngestReport tallies a multi-document ingestion batch.
type IngestReport struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    []string `json:"failed,omitempty"`
	Chunks    int      `json:"chunks"`
}
