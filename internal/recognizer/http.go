package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Spok95/omr-grader/internal/metrics"
	"github.com/Spok95/omr-grader/internal/models"
)

// HTTP — распознаватель как отдельный сервис (sidecar): POST {"image_path": ...}.
type HTTP struct {
	url    string
	client *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{url: strings.TrimRight(url, "/"), client: &http.Client{Timeout: timeout}}
}

func (h *HTTP) Recognize(ctx context.Context, imagePath string) (*models.Recognition, error) {
	start := time.Now()
	defer func() { metrics.ObserveRecognizer("http", time.Since(start)) }()

	body, err := json.Marshal(map[string]string{"image_path": imagePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcess, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcess, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcess, err)
	}
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrProcess, err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: http %d: %s", ErrProcess, resp.StatusCode, clip(string(out)))
	}
	return Parse(out)
}
