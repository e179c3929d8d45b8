package logging

// Standardized field names for structured logging.
const (
	FieldFile         = "file_path"
	FieldFormat       = "format"
	FieldConfidence   = "confidence"
	FieldProcessingID = "processing_id"
	FieldBatchID      = "batch_id"
	FieldCount        = "count"
	FieldSkipped      = "skipped"
	FieldParseErrors  = "parse_errors"
	FieldMismatches   = "mismatches"
	FieldDuration     = "duration_ms"
	FieldOperation    = "operation"
	FieldStatus       = "status"
)
