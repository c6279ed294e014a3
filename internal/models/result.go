package models

// StageTimings records how long each query stage took, in milliseconds.
type StageTimings struct {
	EmbedMs    int64 `json:"embed_ms"`
	RetrieveMs int64 `json:"retrieve_ms"`
	RerankMs   int64 `json:"rerank_ms"`
	GenerateMs int64 `json:"generate_ms"`
}

// AskResponse is the answer to an AskRequest together with the chunks it was grounded on.
type AskResponse struct {
	Query     string       `json:"query"`
	Answer    string       `json:"answer"`
	Retrieved []string     `json:"retrieved"`
	Reranked  []string     `json:"reranked"`
	Timings   StageTimings `json:"timings"`
	QueryTime int64        `json:"query_time_ms"`
}

// RetrieveResponse lists retrieved chunk texts in descending similarity order.
type RetrieveResponse struct {
	Query  string   `json:"query"`
	Chunks []string `json:"chunks"`
}

// IndexResponse reports an indexed document.
type IndexResponse struct {
	ID     string `json:"id"`
	Chunks int    `json:"chunks"`
	Status string `json:"status"`
}

// Status summarizes the pipeline state.
type Status struct {
	Documents       int64  `json:"documents"`
	Records         int    `json:"records"`
	StoreBackend    string `json:"store_backend"`
	EmbeddingModel  string `json:"embedding_model"`
	Dimensions      int    `json:"embedding_dimensions"`
	RerankerModel   string `json:"reranker_model"`
	GenerationModel string `json:"generation_model"`
	DiskUsageBytes  *int64 `json:"disk_usage_bytes,omitempty"`
}
