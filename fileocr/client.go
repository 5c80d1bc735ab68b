// Package fileocr talks to the external text-recognition service that
// extracts text from attached images before matching.
package fileocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/pkg/resilience"
)

// HTTPClient calls the OCR service over HTTP behind a circuit breaker.
// Recognition is a best-effort enrichment, so callers treat failures
// as missing text rather than hard errors.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

func NewHTTPClient(baseURL string, log *logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		breaker: resilience.NewCircuitBreaker(resilience.DefaultConfig("fileocr"), log),
		log:     log.WithComponent("fileocr"),
	}
}

type recognizeRequest struct {
	ImageURL string `json:"image_url"`
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// Recognize extracts text from the image at the given URL
func (c *HTTPClient) Recognize(ctx context.Context, imageURL string) (string, error) {
	body, err := json.Marshal(recognizeRequest{ImageURL: imageURL})
	if err != nil {
		return "", err
	}

	var text string
	err = c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("ocr service returned status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}

		var recognized recognizeResponse
		if err := json.Unmarshal(data, &recognized); err != nil {
			return err
		}
		text = recognized.Text
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// NoopRecognizer is used when no OCR service is configured; attachments
// keep whatever recognized text they were submitted with
type NoopRecognizer struct{}

func (NoopRecognizer) Recognize(ctx context.Context, imageURL string) (string, error) {
	return "", nil
}
