package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Tracing Fields (Context level)
// Propagated through the load and dispatch call chain
// ============================================

const (
	// FieldRunID identifies one process run (UUID)
	FieldRunID = "run_id"

	// FieldJobIndex is the position of a job in the job store
	FieldJobIndex = "job_index"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldDatabase is the source MongoDB database
	FieldDatabase = "dbname"

	// FieldCollection is the source MongoDB collection
	FieldCollection = "colname"

	// FieldIndex is the target Elasticsearch index
	FieldIndex = "elidx"

	// FieldType is the target Elasticsearch document type
	FieldType = "eltype"
)

// ============================================
// Metric Fields (Entry level)
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
