// Package extractor turns job-related messages into typed extraction
// results using schema-constrained generation, with a rule-based degraded
// path when the generation capability is unavailable.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jobtrail/jobtrail/internal/llm"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/service"
)

const systemPrompt = "You are a job-application email analyst. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }."

const defaultTimeout = 30 * time.Second

// Extractor pulls structured application fields out of messages.
type Extractor struct {
	generator service.Generator
	logger    *slog.Logger
	timeout   time.Duration
}

// New creates an extractor around a generation client.
func New(generator service.Generator, logger *slog.Logger, timeout time.Duration) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Extractor{
		generator: generator,
		logger:    logger,
		timeout:   timeout,
	}
}

// Extract produces an extraction result for a single message. Generation
// failures degrade to a keyword-inferred result instead of returning an
// error; extraction must never fail the pipeline.
func (e *Extractor) Extract(ctx context.Context, msg model.Message) model.ExtractionResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	content, err := e.generator.Generate(ctx, buildPrompt(msg), systemPrompt)
	if err != nil {
		e.logger.Warn("extraction generation failed, degrading to keyword inference",
			"message_id", msg.ID, "error", err)
		return e.degraded(msg)
	}

	result, err := parseResult(content, msg)
	if err != nil {
		e.logger.Warn("extraction response unparsable, degrading to keyword inference",
			"message_id", msg.ID, "error", err)
		return e.degraded(msg)
	}

	if result.Status == model.StatusUnknown {
		result.Status = InferStatus(msg.Text())
	}
	result.Confidence = result.ScoreConfidence()
	return result
}

// buildPrompt renders the extraction request for one message.
func buildPrompt(msg model.Message) string {
	var sb strings.Builder
	sb.WriteString("Extract job-application fields from this email.\n\n")
	fmt.Fprintf(&sb, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&sb, "Received: %s\n", msg.ReceivedAt.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Body:\n%s\n\n", msg.Body)
	sb.WriteString(`Respond with a JSON object with exactly these keys:
{
  "company": "employer name, or empty string if not stated",
  "position": "job title, or empty string if not stated",
  "status": "one of APPLIED, INTERVIEW, OFFER, REJECTED, WITHDRAWN, UNKNOWN",
  "event_date": "YYYY-MM-DD date the status change happened, or empty string",
  "application_link": "application tracking URL, or empty string"
}
Use only information stated in the email. Do not guess.`)
	return sb.String()
}

// parseResult decodes and validates the generation response. A malformed
// status collapses to UNKNOWN; an unparsable date becomes nil.
func parseResult(content string, msg model.Message) (model.ExtractionResult, error) {
	var jsonResp struct {
		Company         string `json:"company"`
		Position        string `json:"position"`
		Status          string `json:"status"`
		EventDate       string `json:"event_date"`
		ApplicationLink string `json:"application_link"`
	}

	if err := json.Unmarshal([]byte(llm.ExtractJSONObject(content)), &jsonResp); err != nil {
		return model.ExtractionResult{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	result := model.ExtractionResult{
		MessageID:       msg.ID,
		Company:         strings.TrimSpace(jsonResp.Company),
		Position:        strings.TrimSpace(jsonResp.Position),
		ApplicationLink: strings.TrimSpace(jsonResp.ApplicationLink),
		Status:          model.ParseStatus(jsonResp.Status),
		EventDate:       parseEventDate(jsonResp.EventDate),
	}
	return result, nil
}

// parseEventDate accepts the formats models actually emit for dates.
func parseEventDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	formats := []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// degraded builds the no-capability result: keyword-inferred status with
// the message's receive date, or a fully zeroed result when no phrase
// matches.
func (e *Extractor) degraded(msg model.Message) model.ExtractionResult {
	result := model.ExtractionResult{MessageID: msg.ID}

	status := InferStatus(msg.Text())
	if status == model.StatusUnknown {
		result.Status = model.StatusUnknown
		return result
	}

	eventDate := msg.ReceivedAt.UTC()
	result.Status = status
	result.EventDate = &eventDate
	result.Confidence = 0.1
	return result
}
