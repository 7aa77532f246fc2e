package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/caredocs-labs/medextract/internal/llm"
	"github.com/caredocs-labs/medextract/internal/record"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends one chunk to the chat-completions endpoint and decodes the
// model's answer into a structured record. The raw answer text is returned
// whenever one was obtained, also on failure, so callers can persist it.
func (c *Client) Analyze(ctx context.Context, req llm.AnalyzeRequest) (*record.Record, []byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", reqID,
		"label", req.Label,
		"model", c.cfg.Model,
		"text_chars", len(req.Text))

	extractionDate := time.Now().UTC().Format(time.RFC3339)
	prompt := llm.BuildPrompt(req.Text, extractionDate, len(req.Text))

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, nil, llm.NewRequestFailed(fmt.Errorf("marshal request: %w", err))
	}

	url := c.cfg.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, llm.NewRequestFailed(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error("llm.extract.request_failed",
			"req_id", reqID,
			"label", req.Label,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, llm.NewRequestFailed(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, llm.NewRequestFailed(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("llm.extract.rejected",
			"req_id", reqID,
			"label", req.Label,
			"status", resp.StatusCode,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, respBody, llm.NewServiceRejected(resp.StatusCode, string(respBody))
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, respBody, llm.NewMalformedResponse(string(respBody), fmt.Errorf("decode envelope: %w", err))
	}
	if len(chat.Choices) == 0 {
		return nil, respBody, llm.NewMalformedResponse(string(respBody), fmt.Errorf("no choices in response"))
	}
	content := chat.Choices[0].Message.Content
	raw := []byte(content)

	span, err := llm.RecoverJSON(content)
	if err != nil {
		c.logger.Error("llm.extract.malformed",
			"req_id", reqID,
			"label", req.Label,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, raw, err
	}

	if verr := llm.ValidateAgainstSchema(llm.BuildRecordJSONSchema(), span); verr != nil {
		// Advisory only: the lenient decoder below absorbs shape drift.
		c.logger.Warn("llm.extract.schema_mismatch",
			"req_id", reqID,
			"label", req.Label,
			"error", verr)
	}

	rec, err := record.Decode(span)
	if err != nil {
		return nil, raw, llm.NewMalformedResponse(content, err)
	}

	c.logger.Info("llm.extract.done",
		"req_id", reqID,
		"label", req.Label,
		"confidence", rec.DocumentMetadata.AnalysisConfidence,
		"elapsed_ms", time.Since(start).Milliseconds())
	return rec, raw, nil
}
