// Package paperless provides the HTTP client for the document management
// backend: document download, content writeback, field updates, and taxonomy
// lookups with a TTL cache.
package paperless

// Document is the backend representation of a stored document.
type Document struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Created       string `json:"created"`
	Tags          []int  `json:"tags"`
	Correspondent *int   `json:"correspondent"`
	DocumentType  *int   `json:"document_type"`
}

// Tag is a backend tag.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Correspondent is a backend correspondent.
type Correspondent struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DocumentType is a backend document type.
type DocumentType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UpdateFields carries a partial document update. Nil fields are omitted from
// the PATCH body; Tags is included whenever non-nil, even when empty.
type UpdateFields struct {
	Title         *string `json:"title,omitempty"`
	Tags          []int   `json:"tags,omitempty"`
	Correspondent *int    `json:"correspondent,omitempty"`
	DocumentType  *int    `json:"document_type,omitempty"`
	Created       *string `json:"created,omitempty"`
	Language      *string `json:"language,omitempty"`
}
