package domain

import "time"

// ArtifactFormat selects the wire encoding of a published artifact.
type ArtifactFormat string

// FormatPLY is the binary little-endian PLY point-cloud encoding.
const FormatPLY ArtifactFormat = "ply"

// SplatOptions carries the optional knobs of a splat request. A nil
// FocalLengthPx triggers the focal-length heuristic during preprocessing.
type SplatOptions struct {
	FocalLengthPx *float64
	Format        ArtifactFormat
}

// SplatRequest is the validated input of one request lifecycle. Read-only
// after creation.
type SplatRequest struct {
	Filename    string
	ContentType string
	Image       []byte
	Options     SplatOptions
}

// ResultMetadata is attached to every successful completion.
type ResultMetadata struct {
	OriginalFilename string  `json:"original_filename"`
	PLYSizeBytes     int     `json:"ply_size_bytes"`
	FocalLength      float64 `json:"focal_length"`
	NumGaussians     int     `json:"num_gaussians"`
	ImageWidth       int     `json:"image_width"`
	ImageHeight      int     `json:"image_height"`
}

// SplatResult is the caller-facing outcome of a completed request.
type SplatResult struct {
	URL      string
	Metadata ResultMetadata
}

// PublishedArtifact identifies an uploaded blob. Ownership of the bytes has
// transferred to object storage; the service keeps no copy.
type PublishedArtifact struct {
	Key       string
	SizeBytes int64
	URL       string
	ExpiresAt time.Time
}

// ModelHandle is the loaded model plus its compute-device binding. One handle
// is shared by all requests on a compute unit and lives until the unit is
// reclaimed.
type ModelHandle struct {
	CheckpointPath string
	Device         string
	CUDAAvailable  bool
}

// DeviceInfo reports the runtime's compute device.
type DeviceInfo struct {
	Device        string
	CUDAAvailable bool
}

// ImageTensor is a dense CHW float32 raster in [0, 1], sized to the model's
// fixed square input resolution.
type ImageTensor struct {
	Data     []float32
	Channels int
	Height   int
	Width    int
}
