package pages

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrRetryRequired = errors.New("retry required")
)

const (
	ErrorCodeValidation       = "VALIDATION_ERROR"
	ErrorCodePipelineTimeout  = "PIPELINE_TIMEOUT"
	ErrorCodeGenerationFailed = "GENERATION_FAILED"
	ErrorCodeQualityNotMet    = "QUALITY_NOT_MET"
	ErrorCodeContentRejected  = "CONTENT_REJECTED"
	ErrorCodeStorage          = "STORAGE_ERROR"
	ErrorCodeInternal         = "INTERNAL_ERROR"
)
