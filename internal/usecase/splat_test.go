package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"splat-service/internal/domain"
	"splat-service/internal/testutil"
)

type splatFixture struct {
	rt      *testutil.MockModelRuntime
	fetcher *testutil.MockCheckpointFetcher
	store   *testutil.MockObjectStore
	uc      *SplatUseCase
}

func newSplatFixture(t *testing.T) *splatFixture {
	t.Helper()

	rt := new(testutil.MockModelRuntime)
	fetcher := new(testutil.MockCheckpointFetcher)
	store := new(testutil.MockObjectStore)

	cfg := cacheConfig(t)
	writeCheckpoint(t, cfg)

	cache := NewModelCache(rt, fetcher, cfg)
	pre := NewPreprocessor(32, 1.2)
	engine := NewInferenceEngine(rt, 32)
	publisher := NewPublisher(store, "ply-files", time.Hour)

	return &splatFixture{
		rt:      rt,
		fetcher: fetcher,
		store:   store,
		uc:      NewSplatUseCase(cache, pre, engine, publisher, time.Minute),
	}
}

func (f *splatFixture) happyPath(numGaussians int) {
	f.rt.On("Load", mock.Anything, mock.Anything).Return(&domain.ModelHandle{Device: "cuda:0", CUDAAvailable: true}, nil)
	f.rt.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(makeNDCSet(numGaussians), nil)
	f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("PresignGet", mock.Anything, mock.Anything, mock.Anything).
		Return("https://bucket/signed", time.Now().Add(time.Hour), nil)
}

func TestProcess_FullPipeline(t *testing.T) {
	f := newSplatFixture(t)
	f.happyPath(10)

	result, err := f.uc.Process(context.Background(), &domain.SplatRequest{
		Filename:    "photo.png",
		ContentType: "image/png",
		Image:       makePNG(t, 800, 600),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://bucket/signed", result.URL)
	assert.Equal(t, "photo.png", result.Metadata.OriginalFilename)
	assert.Equal(t, 960.0, result.Metadata.FocalLength)
	assert.Equal(t, 10, result.Metadata.NumGaussians)
	assert.Equal(t, 800, result.Metadata.ImageWidth)
	assert.Equal(t, 600, result.Metadata.ImageHeight)

	// The byte size in metadata is the size of the blob that went to storage.
	putBytes := f.store.Calls[0].Arguments.Get(2).([]byte)
	assert.Equal(t, len(putBytes), result.Metadata.PLYSizeBytes)

	// Encoded vertex count agrees with every attribute array.
	decoded, err := DecodePLY(putBytes)
	require.NoError(t, err)
	assert.Equal(t, 10, decoded.Len())
	assert.NoError(t, decoded.Validate())
}

func TestProcess_InvalidImageSkipsModelWork(t *testing.T) {
	f := newSplatFixture(t)

	_, err := f.uc.Process(context.Background(), &domain.SplatRequest{
		Filename: "empty.png",
		Image:    nil,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	f.rt.AssertNotCalled(t, "Load")
	f.rt.AssertNotCalled(t, "Predict")
	f.store.AssertNotCalled(t, "Put")
}

func TestProcess_UnsupportedFormatRejectedEarly(t *testing.T) {
	f := newSplatFixture(t)

	_, err := f.uc.Process(context.Background(), &domain.SplatRequest{
		Filename: "photo.png",
		Image:    makePNG(t, 10, 10),
		Options:  domain.SplatOptions{Format: "obj"},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	f.rt.AssertNotCalled(t, "Predict")
}

func TestProcess_FocalOverrideFlowsToMetadata(t *testing.T) {
	f := newSplatFixture(t)
	f.happyPath(3)

	fPx := 1234.5
	result, err := f.uc.Process(context.Background(), &domain.SplatRequest{
		Filename: "photo.png",
		Image:    makePNG(t, 100, 100),
		Options:  domain.SplatOptions{FocalLengthPx: &fPx},
	})
	require.NoError(t, err)
	assert.Equal(t, 1234.5, result.Metadata.FocalLength)
}

func TestProcess_ModelUnavailablePropagates(t *testing.T) {
	f := newSplatFixture(t)
	f.rt.On("Load", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("checkpoint corrupt"))

	_, err := f.uc.Process(context.Background(), &domain.SplatRequest{
		Filename: "photo.png",
		Image:    makePNG(t, 10, 10),
	})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	f.store.AssertNotCalled(t, "Put")
}

func TestProcess_PublishFailurePropagates(t *testing.T) {
	f := newSplatFixture(t)
	f.rt.On("Load", mock.Anything, mock.Anything).Return(&domain.ModelHandle{Device: "cuda:0"}, nil)
	f.rt.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(makeNDCSet(2), nil)
	f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("bucket gone"))

	_, err := f.uc.Process(context.Background(), &domain.SplatRequest{
		Filename: "photo.png",
		Image:    makePNG(t, 10, 10),
	})
	assert.ErrorIs(t, err, domain.ErrPublishFailed)
}

// Concurrent requests over one warm unit must not cross results: every
// response's metadata has to describe its own submitted file.
func TestProcess_ConcurrentRequestsKeepResultsApart(t *testing.T) {
	f := newSplatFixture(t)
	f.happyPath(5)

	const n = 20
	images := make([][]byte, n)
	for i := 0; i < n; i++ {
		// Distinct dimensions give every request a distinguishable focal
		// length and metadata signature.
		images[i] = makePNG(t, 100+i, 50)
	}

	var wg sync.WaitGroup
	results := make([]*domain.SplatResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.uc.Process(context.Background(), &domain.SplatRequest{
				Filename: fmt.Sprintf("label-%02d.png", i),
				Image:    images[i],
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("label-%02d.png", i), results[i].Metadata.OriginalFilename)
		assert.Equal(t, float64(100+i)*1.2, results[i].Metadata.FocalLength)
		assert.Equal(t, 100+i, results[i].Metadata.ImageWidth)
	}

	// One warm unit: the model loaded exactly once for all n requests.
	f.rt.AssertNumberOfCalls(t, "Load", 1)
}

func TestProcess_DefaultsToPLYFormat(t *testing.T) {
	f := newSplatFixture(t)
	f.happyPath(1)

	_, err := f.uc.Process(context.Background(), &domain.SplatRequest{
		Filename: "photo.png",
		Image:    makePNG(t, 10, 10),
		Options:  domain.SplatOptions{Format: domain.FormatPLY},
	})
	assert.NoError(t, err)
}
