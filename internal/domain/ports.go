package domain

import (
	"context"
	"time"
)

// ModelRuntime is the boundary to the external GPU inference process. The
// network itself is a black box; the core only loads checkpoints into it and
// runs forward passes.
type ModelRuntime interface {
	// Load deserializes the checkpoint at the given path onto the fastest
	// available device and returns the resulting handle.
	Load(ctx context.Context, checkpointPath string) (*ModelHandle, error)

	// Predict runs one forward pass. The returned set is in the model's
	// normalized-device-coordinate frame.
	Predict(ctx context.Context, tensor *ImageTensor, disparityFactor float32) (*GaussianSet, error)

	// Info reports the runtime's device binding without loading anything.
	Info(ctx context.Context) (*DeviceInfo, error)
}

// CheckpointFetcher retrieves model weights into the persistent cache
// location.
type CheckpointFetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// ObjectStore is the write-once blob storage boundary. Read access to stored
// objects is granted only through minted, expiring URLs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (url string, expiresAt time.Time, err error)
	Delete(ctx context.Context, key string) error
}
