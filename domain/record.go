package domain

// StructuredRecord is one entry of a structured-record source file.
type StructuredRecord struct {
	ID         string
	Title      string
	Text       string
	References any
	Updated    any
	URL        any
}

// Record fields that must be present in every structured record. Title is optional.
var RequiredRecordFields = []string{"id", "text", "references", "updated", "url"}

// Content joins title and text the way indexed records are rendered.
func (r StructuredRecord) Content() string {
	if r.Title != "" {
		return r.Title + "\n" + r.Text
	}
	return r.Text
}

// ToDocument converts the record into a Document keeping its id.
func (r StructuredRecord) ToDocument() (Document, error) {
	return NewDocument(r.ID, r.Content(), Metadata{
		"references": r.References,
		"updated":    r.Updated,
		"url":        r.URL,
	})
}
