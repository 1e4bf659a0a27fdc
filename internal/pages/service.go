package pages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"colorbook-backend/internal/imagegen"
	"colorbook-backend/internal/pipeline"
	"colorbook-backend/internal/prompts"
	"colorbook-backend/internal/queue"
	"colorbook-backend/internal/shared/metrics"
	"colorbook-backend/internal/shared/telemetry"
	"colorbook-backend/internal/taxonomy"
	"colorbook-backend/internal/usage"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Runner executes the generate/validate/repair loop for one page.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Service contains business logic for pages.
type Service struct {
	Repo     Repo
	Usage    *usage.Service
	Runner   Runner
	JobQueue queue.Client
	Provider string
	Model    string
}

// CreateInput carries the caller-supplied parameters for a new page.
type CreateInput struct {
	UserID            string
	BatchID           string
	Subject           string
	StyleID           string
	ComplexityID      string
	AudienceID        string
	AspectRatio       string
	ResolutionTier    string
	ReferenceImageURL string
	Temperature       float64
}

// Create enqueues a new page and kicks off asynchronous generation.
func (s *Service) Create(ctx context.Context, input CreateInput) (Page, error) {
	if input.UserID == "" || strings.TrimSpace(input.Subject) == "" {
		return Page{}, errors.New("userID and subject are required")
	}

	if s.Usage != nil {
		ok, _, err := s.Usage.CanConsume(ctx, input.UserID, 1)
		if err != nil {
			return Page{}, err
		}
		if !ok {
			return Page{}, usage.ErrLimitReached
		}
	}

	temperature := input.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	aspectRatio := input.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "portrait"
	}

	page := Page{
		ID:                uuid.NewString(),
		UserID:            input.UserID,
		BatchID:           input.BatchID,
		Subject:           strings.TrimSpace(input.Subject),
		StyleID:           prompts.StyleByID(input.StyleID).ID,
		ComplexityID:      prompts.ComplexityByID(input.ComplexityID).ID,
		AudienceID:        prompts.AudienceByID(input.AudienceID).ID,
		AspectRatio:       aspectRatio,
		ResolutionTier:    input.ResolutionTier,
		ReferenceImageURL: input.ReferenceImageURL,
		Temperature:       temperature,
		Provider:          normalizeProvider(s.Provider),
		Model:             s.Model,
		Status:            StatusQueued,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, page); err != nil {
		return Page{}, err
	}

	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, input.UserID, 1); err != nil {
			return Page{}, err
		}
	}

	s.dispatch(ctx, page.ID)

	return page, nil
}

// Get returns a page by ID.
func (s *Service) Get(ctx context.Context, pageID string) (Page, error) {
	if pageID == "" {
		return Page{}, errors.New("pageID is required")
	}
	return s.Repo.GetByID(ctx, pageID)
}

// List returns pages for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Page, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// ListByBatch returns all pages belonging to a batch.
func (s *Service) ListByBatch(ctx context.Context, batchID string) ([]Page, error) {
	if batchID == "" {
		return nil, errors.New("batchID is required")
	}
	return s.Repo.ListByBatch(ctx, batchID)
}

// Retry re-dispatches a failed page whose failure was marked retryable.
func (s *Service) Retry(ctx context.Context, userID, pageID string) (Page, error) {
	page, err := s.Repo.GetByID(ctx, pageID)
	if err != nil {
		return Page{}, err
	}
	if page.UserID != userID {
		return Page{}, ErrNotFound
	}
	if page.Status != StatusFailed {
		return Page{}, fmt.Errorf("page %s is %s, only failed pages can be retried: %w", pageID, page.Status, ErrRetryRequired)
	}
	if !page.ErrorRetryable {
		return Page{}, fmt.Errorf("page %s failure is not retryable: %w", pageID, ErrRetryRequired)
	}

	if err := s.Repo.UpdateStatusResultAndError(ctx, pageID, StatusQueued, nil, nil, nil, nil, nil, nil); err != nil {
		return Page{}, err
	}
	page.Status = StatusQueued
	s.dispatch(ctx, pageID)
	return page, nil
}

// dispatch routes the job to the queue when configured, otherwise runs it in
// the background of this process.
func (s *Service) dispatch(ctx context.Context, pageID string) {
	if s.JobQueue != nil {
		msg := queue.Message{
			PageID:     pageID,
			RequestID:  requestIDFromContext(ctx),
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		if err := s.JobQueue.Send(ctx, msg); err == nil {
			return
		} else {
			telemetry.Error("page.enqueue.failed", map[string]any{
				"page_id": pageID,
				"error":   err.Error(),
			})
		}
	}
	go s.completeAsync(backgroundWithRequestID(ctx), pageID)
}

func normalizeProvider(provider string) string {
	if strings.TrimSpace(provider) == "" {
		return "openai"
	}
	return provider
}

func (s *Service) completeAsync(ctx context.Context, pageID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failPage(ctx, pageID, "", ErrorCodeInternal, false, fmt.Errorf("panic: %v", r), nil)
		}
	}()
	_ = s.ProcessPage(ctx, pageID)
}

// ProcessPage runs the full generation loop for one queued page. It is called
// by the queue worker and by the in-process dispatcher.
func (s *Service) ProcessPage(ctx context.Context, pageID string) error {
	startedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatusResultAndError(ctx, pageID, StatusProcessing, nil, nil, nil, nil, &startedAt, nil); err != nil {
		wrapped := fmt.Errorf("set processing failed: %w", err)
		s.failPage(ctx, pageID, "", ErrorCodeStorage, true, wrapped, &startedAt)
		return wrapped
	}

	page, err := s.Repo.GetByID(ctx, pageID)
	if err != nil {
		wrapped := fmt.Errorf("page lookup: %w", err)
		s.failPage(ctx, pageID, "", ErrorCodeStorage, true, wrapped, &startedAt)
		return wrapped
	}
	metrics.IncPageStarted()
	telemetry.Info("page.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           page.UserID,
		"page_id":           page.ID,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})
	if s.Runner == nil {
		wrapped := errors.New("missing pipeline runner")
		s.failPage(ctx, pageID, page.UserID, ErrorCodeInternal, false, wrapped, &startedAt)
		return wrapped
	}

	result, err := s.Runner.Run(ctx, pipeline.Request{
		RequestID:         page.ID,
		Subject:           page.Subject,
		StyleID:           page.StyleID,
		ComplexityID:      page.ComplexityID,
		AudienceID:        page.AudienceID,
		AspectRatio:       page.AspectRatio,
		ResolutionTier:    page.ResolutionTier,
		ReferenceImageURL: page.ReferenceImageURL,
		Temperature:       page.Temperature,
		Params:            s.providerParams(),
	})
	if err != nil {
		code, retryable := classifyFailure(err)
		s.failPage(ctx, pageID, page.UserID, code, retryable, err, &startedAt)
		return err
	}

	payload, err := resultPayload(result)
	if err != nil {
		wrapped := fmt.Errorf("encode pipeline result: %w", err)
		s.failPage(ctx, pageID, page.UserID, ErrorCodeInternal, false, wrapped, &startedAt)
		return wrapped
	}

	if !result.Success {
		code, retryable := classifyOutcome(result)
		completedAt := time.Now().UTC()
		msg := sanitizeError(errors.New(result.Summary))
		if updateErr := s.Repo.UpdateStatusResultAndError(context.Background(), pageID, StatusFailed, payload, &code, &msg, &retryable, nil, &completedAt); updateErr != nil {
			telemetry.Error("page.fail_update.failed", map[string]any{
				"page_id": pageID,
				"error":   updateErr.Error(),
			})
		}
		metrics.IncPageFailed()
		metrics.AddPageAttempts(result.TotalAttempts)
		metrics.ObservePageDurationMs(durationMs(&startedAt, &completedAt))
		telemetry.Info("page.status", map[string]any{
			"request_id":        requestIDFromContext(ctx),
			"user_id":           page.UserID,
			"page_id":           page.ID,
			"status":            StatusFailed,
			"status_transition": "processing->failed",
			"error_code":        code,
			"attempts":          result.TotalAttempts,
			"duration_ms":       durationMs(&startedAt, &completedAt),
		})
		return nil
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdatePageResult(ctx, pageID, payload, result.ImageURL, result.QualityScore, result.IsPublishable, result.TotalAttempts, &completedAt); err != nil {
		wrapped := fmt.Errorf("set page result failed: %w", err)
		s.failPage(ctx, pageID, page.UserID, ErrorCodeStorage, true, wrapped, &startedAt)
		return wrapped
	}
	metrics.IncPageCompleted()
	metrics.AddPageAttempts(result.TotalAttempts)
	for range repairCycles(result) {
		metrics.IncRepairCycles()
	}
	metrics.ObservePageDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("page.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           page.UserID,
		"page_id":           page.ID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"quality_score":     result.QualityScore,
		"publishable":       result.IsPublishable,
		"attempts":          result.TotalAttempts,
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
	return nil
}

func (s *Service) providerParams() imagegen.ProviderParams {
	if normalizeProvider(s.Provider) == string(imagegen.ProviderStability) {
		engine := s.Model
		if engine == "" {
			engine = "sd3"
		}
		return imagegen.ProviderParams{
			Provider:  imagegen.ProviderStability,
			Stability: &imagegen.StabilityParams{Engine: engine},
		}
	}
	model := s.Model
	if model == "" {
		model = "gpt-image-1"
	}
	return imagegen.ProviderParams{
		Provider: imagegen.ProviderOpenAI,
		OpenAI:   &imagegen.OpenAIParams{Model: model},
	}
}

func (s *Service) failPage(ctx context.Context, pageID, userID, code string, retryable bool, err error, startedAt *time.Time) {
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.UpdateStatusResultAndError(context.Background(), pageID, StatusFailed, nil, &code, &msg, &retryable, nil, &completedAt); updateErr != nil {
		telemetry.Error("page.fail_update.failed", map[string]any{
			"page_id": pageID,
			"error":   updateErr.Error(),
			"cause":   msg,
		})
	}
	metrics.IncPageFailed()
	if startedAt != nil {
		metrics.ObservePageDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("page.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"page_id":           pageID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

// classifyFailure maps pipeline errors to a stable error code and a retryable
// flag. The pipeline only errors on cancellation and boundary validation.
func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCodePipelineTimeout, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "generation parameters") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "page lookup") || strings.Contains(msg, "set processing") || strings.Contains(msg, "page result") || strings.Contains(msg, "storage") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

// classifyOutcome maps a not-passed pipeline result to an error code. Policy
// rejections are final; everything else may succeed on a fresh run.
func classifyOutcome(result pipeline.Result) (string, bool) {
	for _, attempt := range result.Attempts {
		if attempt.Plan == nil {
			continue
		}
		for _, issue := range attempt.Plan.Unrepairable {
			if issue.Code == taxonomy.CodeInappropriateContent {
				return ErrorCodeContentRejected, false
			}
		}
	}
	if result.ImageURL == "" {
		return ErrorCodeGenerationFailed, true
	}
	return ErrorCodeQualityNotMet, true
}

func repairCycles(result pipeline.Result) []int {
	var cycles []int
	for _, attempt := range result.Attempts {
		if attempt.Plan != nil && attempt.Plan.ShouldRegenerate {
			cycles = append(cycles, attempt.AttemptNumber)
		}
	}
	return cycles
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func resultPayload(result pipeline.Result) (map[string]any, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
