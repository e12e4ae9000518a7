package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/chunk"
	"github.com/omule0/digest/internal/llm"
	"github.com/omule0/digest/internal/tokens"
)

// ErrQuotaExceeded is returned before any model call when the caller's
// rolling 30-day usage is at the limit. Handlers turn it into a soft
// warning, not a failure.
var ErrQuotaExceeded = errors.New("token limit exceeded")

// ChunkError identifies which chunk aborted a synthesis run.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Quota is the token accounting the synthesizer needs.
type Quota interface {
	LimitExceeded(ctx context.Context, userID uuid.UUID) (bool, error)
	Log(ctx context.Context, entry tokens.Entry) error
}

// ReportSaver persists the merged report.
type ReportSaver interface {
	SaveReport(ctx context.Context, report *GeneratedReport) error
}

// Synthesizer runs the chunked report pipeline: split, pack, per-chunk
// structured extraction, merge, persist.
type Synthesizer struct {
	Model    llm.ChatModel
	Tokens   Quota
	Store    ReportSaver
	splitter *chunk.Splitter
	counter  *tokenCounter
}

// NewSynthesizer wires the report-tuned splitter and token counter.
func NewSynthesizer(model llm.ChatModel, quota Quota, store ReportSaver) (*Synthesizer, error) {
	splitter, err := chunk.NewSplitter(chunk.ReportChunkSize, chunk.ReportChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Synthesizer{
		Model:    model,
		Tokens:   quota,
		Store:    store,
		splitter: splitter,
		counter:  newTokenCounter(),
	}, nil
}

// SynthesizeRequest carries everything one synthesis run needs.
type SynthesizeRequest struct {
	DocumentType  string
	SubType       string
	UserPrompt    string
	SourceTexts   []string
	SelectedFiles []string
	WorkspaceID   uuid.UUID
	UserID        uuid.UUID
	Schema        *Schema
}

// Synthesize builds one merged report. Any per-chunk failure aborts the
// whole run; nothing is persisted on error.
func (s *Synthesizer) Synthesize(ctx context.Context, req SynthesizeRequest) (*GeneratedReport, error) {
	log := logrus.WithFields(logrus.Fields{
		"document_type": req.DocumentType,
		"sub_type":      req.SubType,
		"workspace_id":  req.WorkspaceID,
		"user_id":       req.UserID,
	})
	log.Info("service: starting report synthesis")

	exceeded, err := s.Tokens.LimitExceeded(ctx, req.UserID)
	if err != nil {
		log.WithError(err).Error("service: failed to check token quota")
		return nil, err
	}
	if exceeded {
		return nil, ErrQuotaExceeded
	}

	schema := req.Schema
	if schema == nil {
		builtin, ok := BuiltinSchema(req.DocumentType, req.SubType)
		if !ok {
			return nil, fmt.Errorf("invalid document type or subtype")
		}
		schema = builtin
	}

	if len(req.SourceTexts) == 0 {
		return nil, fmt.Errorf("no file contents provided")
	}

	var pieces []string
	for _, text := range req.SourceTexts {
		split, err := s.splitter.Split(text)
		if err != nil {
			return nil, fmt.Errorf("could not split source text: %w", err)
		}
		for _, c := range split {
			pieces = append(pieces, c.Content)
		}
	}
	packed := packChunks(pieces, packTokenCeiling, s.counter.count)
	log.WithFields(logrus.Fields{
		"chunks": len(pieces),
		"packed": len(packed),
	}).Info("service: source texts chunked")

	var totalUsage llm.Usage
	results := make([]map[string]any, 0, len(packed))
	for i, text := range packed {
		result, usage, err := s.extractChunk(ctx, schema, req, text)
		if err != nil {
			log.WithError(err).WithField("chunk_index", i).Error("service: chunk extraction failed, aborting synthesis")
			return nil, &ChunkError{Index: i, Err: err}
		}
		totalUsage.Add(usage)
		results = append(results, result)
	}

	merged, sources := Merge(results, packed)

	report := &GeneratedReport{
		UserID:       req.UserID,
		WorkspaceID:  req.WorkspaceID,
		DocumentType: req.DocumentType,
		SubType:      req.SubType,
		Content:      req.UserPrompt,
		ReportData:   merged,
		Metadata: map[string]any{
			"sources":         sources,
			"processedChunks": len(packed),
			"template_name":   schema.Name,
			"source_count":    len(req.SourceTexts),
			"generation_date": time.Now().UTC().Format(time.RFC3339),
		},
		SourceFiles: req.SelectedFiles,
	}
	if totalUsage.TotalTokens > 0 {
		report.TokenUsage = &totalUsage
	}

	if err := s.Store.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save generated report: %w", err)
	}

	entry := tokens.Entry{
		UserID:      req.UserID,
		WorkspaceID: &req.WorkspaceID,
		TokensUsed:  totalUsage.TotalTokens,
		UsageType:   "report_generation",
		DocumentID:  &report.ID,
	}
	if err := s.Tokens.Log(ctx, entry); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"report_id":    report.ID,
		"total_tokens": totalUsage.TotalTokens,
	}).Info("service: report synthesized successfully")
	return report, nil
}

// extractChunk runs one structured-extraction call and validates the
// response against the schema. Parse failures include the raw response to
// aid debugging; there is no retry.
func (s *Synthesizer) extractChunk(ctx context.Context, schema *Schema, req SynthesizeRequest, text string) (map[string]any, llm.Usage, error) {
	prompt := fmt.Sprintf(`You are an expert in %s and %s generation. Your task is to create a %s based on the following content and requirements: %s

Source document content to analyze:
%s

Ensure the %s follows the required structure and incorporates relevant information from the source document.

%s

Important: ensure all fields are properly filled and all arrays contain at least one item. For any field where information is not available, provide a reasonable inference based on context rather than leaving it empty.`,
		req.DocumentType, req.SubType, req.SubType, req.UserPrompt,
		text,
		req.DocumentType,
		schema.FormatInstructions(),
	)

	resp, err := s.Model.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, llm.Usage{}, err
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(resp.Text), &result); err != nil {
		return nil, llm.Usage{}, fmt.Errorf("failed to parse model response as JSON: %w (raw response: %s)", err, resp.Text)
	}
	if err := schema.Validate(result); err != nil {
		return nil, llm.Usage{}, fmt.Errorf("%w (raw response: %s)", err, resp.Text)
	}
	return result, resp.Usage, nil
}
