package port

// BlobStore is durable text storage for the serialized wallet ledger.
type BlobStore interface {
	// ReadText returns the stored document. A missing document is an error;
	// callers treat it as "start from defaults".
	ReadText(path string) (string, error)
	WriteText(path string, data string) error
}
