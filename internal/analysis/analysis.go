// Package analysis provides AI document analysis: an OpenAI-compatible
// client with response schema validation, the error classifier deciding when
// AI failures fall back to the OCR queue, and the runner that folds analysis
// results back into the document backend.
package analysis

// Request carries the document text and the existing backend taxonomy for
// one analysis invocation.
type Request struct {
	Content        string
	Tags           []string
	Correspondents []string
	DocumentTypes  []string
}

// Result is a validated analysis response.
type Result struct {
	Document DocumentFields `json:"document"`
	Metrics  *Metrics       `json:"metrics,omitempty"`
}

// DocumentFields holds the field suggestions produced by analysis. Empty
// strings mean the model offered no suggestion for that field.
type DocumentFields struct {
	Title         string   `json:"title"`
	Tags          []string `json:"tags"`
	Correspondent string   `json:"correspondent"`
	DocumentType  string   `json:"document_type"`
	DocumentDate  string   `json:"document_date"`
	Language      string   `json:"language"`
}

// Metrics holds token usage for one analysis invocation.
type Metrics struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
