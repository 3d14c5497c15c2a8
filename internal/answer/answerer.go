// Package answer serves natural-language questions over resolved
// application records, combining direct record scans with
// retrieval-augmented generation.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jobtrail/jobtrail/internal/common"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/service"
)

// DefaultTopK is the number of records retrieved for semantic questions.
const DefaultTopK = 8

const systemPrompt = "You answer questions about the user's job applications. Use ONLY the context given. Do NOT guess or hallucinate. Cite the application ids you used in square brackets, like [app-123]. If the context does not contain the answer, say so."

// Response is the answerer's result. Text is never empty: degraded paths
// fall back to a structured summary of whatever records were retrieved.
type Response struct {
	Text     string
	Route    string
	Sources  []string
	Degraded bool
}

// Answerer routes and answers questions over the record store and index.
type Answerer struct {
	storage   service.Storage
	embedder  service.Embedder
	index     service.VectorIndex
	generator service.Generator
	logger    *slog.Logger
	topK      int
	now       func() time.Time
}

// New creates an answerer. topK <= 0 selects the default.
func New(storage service.Storage, embedder service.Embedder, index service.VectorIndex, generator service.Generator, logger *slog.Logger, topK int) *Answerer {
	if logger == nil {
		logger = slog.Default()
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Answerer{
		storage:   storage,
		embedder:  embedder,
		index:     index,
		generator: generator,
		logger:    logger,
		topK:      topK,
		now:       time.Now,
	}
}

// Answer responds to one question.
func (a *Answerer) Answer(ctx context.Context, question string) (Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, fmt.Errorf("question cannot be empty")
	}

	parsed := parseQuery(question, a.now().UTC())
	switch parsed.route {
	case routeStatusFilter:
		return a.answerStatusFilter(ctx, parsed)
	case routeAggregate:
		return a.answerAggregate(ctx, parsed)
	default:
		return a.answerSemantic(ctx, question)
	}
}

// answerStatusFilter scans the record store directly for a recognized
// status token. Every listed record carries the requested status.
func (a *Answerer) answerStatusFilter(ctx context.Context, parsed parsedQuery) (Response, error) {
	records, err := a.storage.GetApplicationRecords(ctx, service.RecordFilter{Status: parsed.status})
	if err != nil {
		return Response{}, fmt.Errorf("failed to scan records: %w", err)
	}

	response := Response{Route: parsed.route.String()}
	if len(records) == 0 {
		response.Text = fmt.Sprintf("No applications currently have status %s.", parsed.status)
		return response, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d application(s) with status %s:\n", len(records), parsed.status)
	for _, record := range records {
		sb.WriteString(formatRecordLine(record))
		response.Sources = append(response.Sources, record.ApplicationID)
	}
	response.Text = strings.TrimRight(sb.String(), "\n")
	return response, nil
}

// answerAggregate counts applications, optionally restricted to a status
// and a status-event date window.
func (a *Answerer) answerAggregate(ctx context.Context, parsed parsedQuery) (Response, error) {
	var (
		records []model.ApplicationRecord
		err     error
	)

	if parsed.start != nil && parsed.end != nil {
		records, err = a.storage.GetRecordsWithStatusEventsBetween(ctx, *parsed.start, *parsed.end)
	} else {
		records, err = a.storage.GetApplicationRecords(ctx, service.RecordFilter{})
	}
	if err != nil {
		return Response{}, fmt.Errorf("failed to scan records: %w", err)
	}

	if parsed.status != model.StatusUnknown {
		records = filterByEventStatus(records, parsed.status, parsed.start, parsed.end)
	}

	companies := make(map[string]bool)
	response := Response{Route: parsed.route.String()}
	for _, record := range records {
		key := record.Company
		if key == "" {
			key = record.BucketKey
		}
		companies[key] = true
		response.Sources = append(response.Sources, record.ApplicationID)
	}

	subject := "applications"
	if parsed.status != model.StatusUnknown {
		subject = fmt.Sprintf("applications reaching %s", parsed.status)
	}
	window := ""
	if parsed.start != nil && parsed.end != nil {
		window = fmt.Sprintf(" between %s and %s",
			parsed.start.Format("2006-01-02"), parsed.end.AddDate(0, 0, -1).Format("2006-01-02"))
	}

	response.Text = fmt.Sprintf("%d %s across %d distinct companies%s.",
		len(records), subject, len(companies), window)
	return response, nil
}

// answerSemantic embeds the question, retrieves the top-k records, and
// asks the generator for a grounded answer. Any capability failure
// degrades to a structured summary instead of an error.
func (a *Answerer) answerSemantic(ctx context.Context, question string) (Response, error) {
	records, err := a.retrieve(ctx, question)
	if err != nil {
		a.logger.Warn("semantic retrieval failed, degrading to record summary", "error", err)
		return a.degradedSummary(ctx)
	}

	response := Response{Route: routeSemantic.String()}
	if len(records) == 0 {
		response.Text = "No application records matched the question."
		return response, nil
	}

	for _, record := range records {
		response.Sources = append(response.Sources, record.ApplicationID)
	}

	prompt := buildAnswerPrompt(question, records)
	text, err := a.generator.Generate(ctx, prompt, systemPrompt)
	if err != nil || strings.TrimSpace(text) == "" {
		a.logger.Warn("answer generation failed, returning structured summary",
			"error", err)
		response.Text = summarizeRecords(records)
		response.Degraded = true
		return response, nil
	}

	response.Text = strings.TrimSpace(text)
	return response, nil
}

// retrieve runs the embed-and-search leg and loads the matched records.
func (a *Answerer) retrieve(ctx context.Context, question string) ([]model.ApplicationRecord, error) {
	vector, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	matches, err := a.index.Search(ctx, vector, a.topK)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	records := make([]model.ApplicationRecord, 0, len(matches))
	for _, match := range matches {
		record, err := a.storage.GetApplicationRecord(ctx, match.ApplicationID)
		if err != nil {
			if common.IsNotFound(err) {
				// Index entry outlived its record; skip it.
				a.logger.Warn("index hit with no backing record", "application_id", match.ApplicationID)
				continue
			}
			return nil, fmt.Errorf("failed to load record %s: %w", match.ApplicationID, err)
		}
		records = append(records, *record)
	}
	return records, nil
}

// degradedSummary answers from the record store alone when retrieval is
// unavailable. The result is marked degraded but never empty.
func (a *Answerer) degradedSummary(ctx context.Context) (Response, error) {
	records, err := a.storage.GetApplicationRecords(ctx, service.RecordFilter{Limit: a.topK})
	if err != nil {
		return Response{}, fmt.Errorf("failed to scan records for fallback: %w", err)
	}

	response := Response{Route: routeSemantic.String(), Degraded: true}
	if len(records) == 0 {
		response.Text = "No application records are available yet."
		return response, nil
	}

	for _, record := range records {
		response.Sources = append(response.Sources, record.ApplicationID)
	}
	response.Text = "Retrieval is unavailable; most recently updated applications:\n" + summarizeRecords(records)
	return response, nil
}

// buildAnswerPrompt assembles the compact structured context block.
func buildAnswerPrompt(question string, records []model.ApplicationRecord) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for _, record := range records {
		fmt.Fprintf(&sb, "[%s] company=%q position=%q status=%s last_updated=%s",
			record.ApplicationID, record.Company, record.Position,
			record.CurrentStatus, record.LastUpdatedAt.Format("2006-01-02"))
		if len(record.StatusHistory) > 0 {
			sb.WriteString(" history=")
			for i, event := range record.StatusHistory {
				if i > 0 {
					sb.WriteString(",")
				}
				fmt.Fprintf(&sb, "%s@%s", event.Status, event.Date.Format("2006-01-02"))
			}
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nQuestion: %s", question)
	return sb.String()
}

// summarizeRecords renders records as a plain list for degraded answers.
func summarizeRecords(records []model.ApplicationRecord) string {
	var sb strings.Builder
	for _, record := range records {
		sb.WriteString(formatRecordLine(record))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatRecordLine(record model.ApplicationRecord) string {
	company := record.Company
	if company == "" {
		company = record.BucketKey
	}
	position := record.Position
	if position == "" {
		position = "unknown position"
	}
	return fmt.Sprintf("- %s, %s: %s (updated %s) [%s]\n",
		company, position, record.CurrentStatus,
		record.LastUpdatedAt.Format("2006-01-02"), record.ApplicationID)
}

// filterByEventStatus keeps records whose history contains the status,
// inside the window when one is given.
func filterByEventStatus(records []model.ApplicationRecord, status model.ApplicationStatus, start, end *time.Time) []model.ApplicationRecord {
	filtered := records[:0:0]
	for _, record := range records {
		for _, event := range record.StatusHistory {
			if event.Status != status {
				continue
			}
			if start != nil && event.Date.Before(*start) {
				continue
			}
			if end != nil && !event.Date.Before(*end) {
				continue
			}
			filtered = append(filtered, record)
			break
		}
	}
	return filtered
}
