// Package runtime is the client adapter for the external GPU model runtime.
// The torch process sits behind a small HTTP surface (load / predict / info);
// everything model-internal stays on that side of the boundary.
package runtime

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"splat-service/internal/domain"
)

const (
	headerChannels  = "X-Tensor-Channels"
	headerHeight    = "X-Tensor-Height"
	headerWidth     = "X-Tensor-Width"
	headerDisparity = "X-Disparity-Factor"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type loadRequest struct {
	CheckpointPath string `json:"checkpoint_path"`
}

type loadResponse struct {
	Device        string `json:"device"`
	CUDAAvailable bool   `json:"cuda_available"`
}

// Load instructs the runtime to deserialize the checkpoint onto its fastest
// device and returns the resulting handle.
func (c *Client) Load(ctx context.Context, checkpointPath string) (*domain.ModelHandle, error) {
	body, _ := json.Marshal(loadRequest{CheckpointPath: checkpointPath})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/model/load", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create load request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runtime load request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("runtime load: %s", readDetail(resp))
	}

	var lr loadResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("decode load response: %w", err)
	}

	log.WithFields(log.Fields{
		"device":     lr.Device,
		"checkpoint": checkpointPath,
	}).Debug("runtime reported model loaded")

	return &domain.ModelHandle{
		CheckpointPath: checkpointPath,
		Device:         lr.Device,
		CUDAAvailable:  lr.CUDAAvailable,
	}, nil
}

type predictResponse struct {
	Positions [][3]float32 `json:"positions"`
	Rotations [][4]float32 `json:"rotations"`
	Scales    [][3]float32 `json:"scales"`
	Colors    [][3]float32 `json:"colors"`
	Opacities []float32    `json:"opacities"`
}

// Predict streams the CHW float32 tensor to the runtime and returns the
// NDC-frame Gaussians from the forward pass. A 507 status or an out-of-memory
// detail maps to ErrInferenceResourceExhausted so callers can retry on a
// larger allocation.
func (c *Client) Predict(ctx context.Context, tensor *domain.ImageTensor, disparityFactor float32) (*domain.GaussianSet, error) {
	raw := make([]byte, len(tensor.Data)*4)
	for i, f := range tensor.Data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predict", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(headerChannels, strconv.Itoa(tensor.Channels))
	req.Header.Set(headerHeight, strconv.Itoa(tensor.Height))
	req.Header.Set(headerWidth, strconv.Itoa(tensor.Width))
	req.Header.Set(headerDisparity, strconv.FormatFloat(float64(disparityFactor), 'g', -1, 32))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runtime predict request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := readDetail(resp)
		if resp.StatusCode == http.StatusInsufficientStorage || isOutOfMemory(detail) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInferenceResourceExhausted, detail)
		}
		return nil, fmt.Errorf("runtime predict: %s", detail)
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}

	return &domain.GaussianSet{
		Positions: pr.Positions,
		Rotations: pr.Rotations,
		Scales:    pr.Scales,
		Colors:    pr.Colors,
		Opacities: pr.Opacities,
	}, nil
}

type infoResponse struct {
	Device        string `json:"device"`
	CUDAAvailable bool   `json:"cuda_available"`
}

// Info reports the runtime's device binding without touching the model.
func (c *Client) Info(ctx context.Context) (*domain.DeviceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/info", nil)
	if err != nil {
		return nil, fmt.Errorf("create info request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runtime info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("runtime info: %s", readDetail(resp))
	}

	var ir infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, fmt.Errorf("decode info response: %w", err)
	}

	return &domain.DeviceInfo{Device: ir.Device, CUDAAvailable: ir.CUDAAvailable}, nil
}

func readDetail(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func isOutOfMemory(detail string) bool {
	return strings.Contains(strings.ToLower(detail), "out of memory")
}
