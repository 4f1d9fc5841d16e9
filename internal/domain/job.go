package domain

// JobDescriptor describes one synchronization unit: a MongoDB collection to copy
// and the Elasticsearch index/type it is written to.
//
// A descriptor is complete once all four fields are assigned. Completeness is not
// enforced before dispatch; an unset field stays empty.
type JobDescriptor struct {
	SourceDatabase   string `json:"source_database"`
	SourceCollection string `json:"source_collection"`
	TargetIndex      string `json:"target_index"`
	TargetType       string `json:"target_type"`
}

// Complete reports whether every field of the descriptor has been assigned.
func (j JobDescriptor) Complete() bool {
	return j.SourceDatabase != "" && j.SourceCollection != "" && j.TargetIndex != "" && j.TargetType != ""
}
