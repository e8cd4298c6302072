package driver

// IndexEntryDriver is the stored form of a document in a search engine index.
type IndexEntryDriver struct {
	ID       string         `json:"-"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// BulkItemResult is the engine's verdict on one entry of a bulk write.
type BulkItemResult struct {
	ID     string
	Status int
	Error  string
}

// Failed reports whether the engine rejected the entry.
func (r BulkItemResult) Failed() bool {
	return r.Error != "" || r.Status >= 300
}

// DriverError represents an error from the driver layer
type DriverError struct {
	Op  string
	Err error
}

func (e *DriverError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DriverError) Unwrap() error {
	return e.Err
}
