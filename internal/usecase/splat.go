package usecase

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"splat-service/internal/domain"
	"splat-service/internal/metrics"
)

// SplatUseCase sequences one request through the pipeline:
// validate → preprocess → acquire model → infer → encode → publish.
// Validation and preprocessing run before any model or GPU work so invalid
// input never consumes compute.
type SplatUseCase struct {
	cache            *ModelCache
	preprocessor     *Preprocessor
	engine           *InferenceEngine
	publisher        *Publisher
	inferenceTimeout time.Duration
}

func NewSplatUseCase(cache *ModelCache, pre *Preprocessor, engine *InferenceEngine, publisher *Publisher, inferenceTimeout time.Duration) *SplatUseCase {
	return &SplatUseCase{
		cache:            cache,
		preprocessor:     pre,
		engine:           engine,
		publisher:        publisher,
		inferenceTimeout: inferenceTimeout,
	}
}

// Process runs a full request lifecycle and returns the published artifact
// URL with its metadata. Failures abort at the current stage and carry one of
// the domain sentinel errors.
func (uc *SplatUseCase) Process(ctx context.Context, req *domain.SplatRequest) (*domain.SplatResult, error) {
	format := req.Options.Format
	if format == "" {
		format = domain.FormatPLY
	}
	if format != domain.FormatPLY {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}

	logger := log.WithField("filename", req.Filename)

	start := time.Now()
	prep, err := uc.preprocessor.Prepare(req.Image, req.Options.FocalLengthPx)
	if err != nil {
		return nil, err
	}
	metrics.ObserveStage("preprocess", start)
	logger.WithFields(log.Fields{
		"width":    prep.Width,
		"height":   prep.Height,
		"focal_px": prep.FocalPx,
	}).Debug("image preprocessed")

	start = time.Now()
	handle, err := uc.cache.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	metrics.ObserveStage("acquire", start)

	inferCtx, cancel := context.WithTimeout(ctx, uc.inferenceTimeout)
	defer cancel()

	start = time.Now()
	set, err := uc.engine.Infer(inferCtx, prep, handle)
	if err != nil {
		return nil, err
	}
	metrics.ObserveStage("infer", start)
	logger.WithField("num_gaussians", set.Len()).Debug("inference complete")

	start = time.Now()
	blob, err := EncodePLY(set)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceFailed, err)
	}
	metrics.ObserveStage("encode", start)

	start = time.Now()
	artifact, err := uc.publisher.Publish(ctx, blob, req.Filename)
	if err != nil {
		return nil, err
	}
	metrics.ObserveStage("publish", start)
	metrics.ArtifactBytes.Observe(float64(artifact.SizeBytes))

	logger.WithFields(log.Fields{
		"key":        artifact.Key,
		"size_bytes": artifact.SizeBytes,
		"expires_at": artifact.ExpiresAt,
	}).Info("artifact published")

	return &domain.SplatResult{
		URL: artifact.URL,
		Metadata: domain.ResultMetadata{
			OriginalFilename: req.Filename,
			PLYSizeBytes:     len(blob),
			FocalLength:      prep.FocalPx,
			NumGaussians:     set.Len(),
			ImageWidth:       prep.Width,
			ImageHeight:      prep.Height,
		},
	}, nil
}
