// Package report implements the submission pipeline: the ordered sequence of
// steps turning a raw multipart submission into a persisted, enriched report.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oceaneye/oceaneye/internal/config"
	"github.com/oceaneye/oceaneye/internal/media"
	"github.com/oceaneye/oceaneye/internal/metrics"
	"github.com/oceaneye/oceaneye/internal/model"
)

// Inserter persists a report and returns it with the author name resolved.
type Inserter interface {
	Insert(ctx context.Context, rep *model.Report) (*model.Report, error)
}

// Analyzer produces an AI verdict for a stored media URL.
type Analyzer interface {
	Analyze(ctx context.Context, mediaURL, mediaType string) (model.AnalysisResult, error)
}

// Media is the uploaded file part of a submission.
type Media struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// Submission carries the validated user input for one report.
type Submission struct {
	Description string  `validate:"required"`
	Severity    string  `validate:"required"`
	Location    string  `validate:"required"`
	Lat         float64 `validate:"latitude"`
	Lon         float64 `validate:"longitude"`
	Media       *Media  `validate:"required"`
}

// Pipeline orchestrates validation, media storage, AI analysis, and
// persistence. It runs once per request; no step is retried. Submissions from
// different users proceed independently with no shared mutable state beyond
// the backing store.
type Pipeline struct {
	store    media.Store
	analyzer Analyzer
	repo     Inserter
	policy   config.AnalysisPolicy
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// New constructs a Pipeline.
func New(store media.Store, analyzer Analyzer, repo Inserter, policy config.AnalysisPolicy, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		analyzer: analyzer,
		repo:     repo,
		policy:   policy,
		validate: validator.New(),
		metrics:  m,
		logger:   logger,
	}
}

// Submit runs the pipeline for one submission on behalf of the authenticated
// author and returns the stored, author-resolved report. Failures wrap one of
// the kinds in errors.go; the first failure wins and nothing is retried.
func (p *Pipeline) Submit(ctx context.Context, authorID string, sub Submission) (*model.Report, error) {
	if err := p.validateSubmission(sub); err != nil {
		p.metrics.IncPipelineOutcome(metrics.OutcomeValidationError)
		return nil, err
	}

	mediaURL, err := p.store.Save(ctx, sub.Media.Reader, sub.Media.Filename, sub.Media.ContentType)
	if err != nil {
		p.metrics.IncPipelineOutcome(metrics.OutcomeStorageError)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	result, err := p.analyzeStored(ctx, mediaURL, sub.Media.ContentType)
	if err != nil {
		return nil, err
	}

	stored, err := p.repo.Insert(ctx, &model.Report{
		Author:      model.Author{ID: authorID},
		Description: sub.Description,
		Severity:    model.Severity(sub.Severity),
		Location:    sub.Location,
		Lat:         sub.Lat,
		Lon:         sub.Lon,
		MediaURL:    mediaURL,
		AIAnalysis:  result,
	})
	if err != nil {
		p.metrics.IncPipelineOutcome(metrics.OutcomePersistenceError)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	p.metrics.IncPipelineOutcome(metrics.OutcomeResponded)
	return stored, nil
}

func (p *Pipeline) validateSubmission(sub Submission) error {
	if err := p.validate.Struct(sub); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if sub.Media.Size == 0 || sub.Media.Reader == nil {
		return fmt.Errorf("%w: empty media payload", ErrValidation)
	}
	if sub.Media.ContentType == "" {
		return fmt.Errorf("%w: missing media content type", ErrValidation)
	}
	return nil
}

// analyzeStored applies the configured failure policy deterministically:
// degrade always yields a nil result on failure, strict always aborts.
func (p *Pipeline) analyzeStored(ctx context.Context, mediaURL, mediaType string) (model.AnalysisResult, error) {
	start := time.Now()
	result, err := p.analyzer.Analyze(ctx, mediaURL, mediaType)
	p.metrics.ObserveAnalysisDuration(time.Since(start).Seconds())
	if err == nil {
		return result, nil
	}
	if p.policy == config.PolicyStrict {
		p.metrics.IncPipelineOutcome(metrics.OutcomeAnalysisError)
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}
	p.metrics.IncPipelineOutcome(metrics.OutcomeAnalysisDegraded)
	p.logger.Warn("analysis failed, continuing without result",
		zap.String("media_url", mediaURL),
		zap.Error(err))
	return nil, nil
}
