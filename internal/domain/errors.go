package domain

import "errors"

var (
	ErrInvalidImage               = errors.New("invalid image: empty, corrupt, or unsupported encoding")
	ErrUnsupportedFormat          = errors.New("unsupported artifact format")
	ErrModelUnavailable           = errors.New("model weights could not be loaded")
	ErrInferenceResourceExhausted = errors.New("inference device out of memory")
	ErrInferenceFailed            = errors.New("model execution failed")
	ErrPublishFailed              = errors.New("artifact upload failed")
)
