package analysis

import "context"

// Client submits code to an analysis backend.
type Client interface {
	Analyze(ctx context.Context, code string) (*Result, error)
}

// Extractor asks a language model to describe code. It returns the raw model text,
// expected to hold a JSON object shaped like Result.
type Extractor interface {
	Extract(ctx context.Context, code string) (string, error)
	Provider() string
	Model() string
}

// Repository port for persisting and querying analyses
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id RecordID) (*Record, error)
	Paginate(ctx context.Context, page, pageSize int) ([]*Record, error)
}

// SourceArchive keeps a copy of submitted source and returns where it was stored.
type SourceArchive interface {
	Put(ctx context.Context, key string, code []byte) (string, error)
}
