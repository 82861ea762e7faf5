package citations

// Metadata is a read-only snapshot of a citing document's bibliographic fields.
// Values are sourced from the tabular citation store; unknown fields stay empty.
type Metadata struct {
	Title   string `json:"title"`
	Journal string `json:"journal,omitempty"`
	Year    int    `json:"year,omitempty"`
}
