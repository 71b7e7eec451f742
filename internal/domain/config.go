package domain

// KeyPrefix namespaces every key the service writes to Valkey/Redis.
// Overridden at startup from storage.key_prefix.
var KeyPrefix = "vidsearch:"

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model          string
	Dimensions     int
	DistanceMetric string
	Algorithm      string
	QueryPrompt    string
}

// DefaultVectorConfig returns the defaults for CLIP ViT-B/32 (512-d, cosine).
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "clip-vit-base-patch32",
		Dimensions:     512,
		DistanceMetric: "cosine",
		Algorithm:      "hnsw",
		QueryPrompt:    "",
	}
}
