package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation, ordered by similarity descending.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hash hit from a search. Score is a similarity
// (1 - cosine distance), higher is better.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
