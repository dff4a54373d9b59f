package service

import (
	"context"
	"fmt"
	"time"

	"transferscan/internal/articulation"
	"transferscan/internal/artifact"
	"transferscan/internal/catalog"
	"transferscan/internal/domain"
	"transferscan/internal/logger"
	"transferscan/internal/repository"
)

// TextConverter turns a fetched artifact payload into extractable text.
type TextConverter interface {
	Text(ctx context.Context, data []byte) (string, error)
}

// Matcher drives the end-to-end matching pipeline for one job: resolve
// the receiving institution, enumerate its partners, and scan each
// partner's agreement document for an articulation of the course.
type Matcher struct {
	directory catalog.Directory
	fetcher   artifact.Fetcher
	converter TextConverter
	store     *repository.JobStore
	logger    *logger.Logger
}

// NewMatcher creates a new matcher.
// Parameters:
//   - directory: institution directory client.
//   - fetcher: agreement document fetcher.
//   - converter: document payload to text converter.
//   - store: job store the pipeline mutates.
//   - log: logger instance.
//
// Returns:
//   - *Matcher: initialized matcher.
func NewMatcher(
	directory catalog.Directory,
	fetcher artifact.Fetcher,
	converter TextConverter,
	store *repository.JobStore,
	log *logger.Logger,
) *Matcher {
	return &Matcher{
		directory: directory,
		fetcher:   fetcher,
		converter: converter,
		store:     store,
		logger:    log,
	}
}

// Launch starts the pipeline for a job in the background. All observable
// effects happen through job store mutations; poll the store to follow it.
func (m *Matcher) Launch(jobID string, req domain.MatchRequest) {
	// Detach from the HTTP request lifetime
	go m.Run(context.Background(), jobID, req)
}

// Run executes the pipeline synchronously. Institution resolution and
// agreement enumeration failures fail the job; everything that goes wrong
// for an individual partner is logged and skipped.
func (m *Matcher) Run(ctx context.Context, jobID string, req domain.MatchRequest) {
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldJobID:       jobID,
		logger.FieldInstitution: req.InstitutionName,
	})
	start := time.Now()

	m.store.Update(jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusProcessing
		j.Progress = "resolving institution"
	})

	logger.CtxInfo(ctx, "Starting match run: major=%q, course=%q", req.Major, req.Course)

	institutions, err := m.directory.Institutions(ctx)
	if err != nil {
		m.fail(ctx, jobID, fmt.Errorf("failed to list institutions: %w", err))
		return
	}

	receivingID, ok := resolveInstitution(institutions, req.InstitutionName)
	if !ok {
		m.fail(ctx, jobID, fmt.Errorf("%w: %q", catalog.ErrInstitutionNotFound, req.InstitutionName))
		return
	}

	agreements, err := m.directory.Agreements(ctx, receivingID)
	if err != nil {
		m.fail(ctx, jobID, fmt.Errorf("failed to list agreements: %w", err))
		return
	}

	partners := dedupePartners(agreements)
	m.store.Update(jobID, func(j *domain.Job) {
		j.Progress = fmt.Sprintf("found %d partner institutions", len(partners))
	})

	logger.With(logger.Fields{logger.FieldCount: len(partners)}).
		Info(ctx, "Enumerated partner institutions: receiving_id=%d", receivingID)

	// Partners are processed strictly sequentially: the upstream is not
	// hammered and match order stays deterministic.
	for _, partnerID := range partners {
		result, err := m.processPartner(ctx, receivingID, partnerID, req)
		if err != nil {
			logger.CtxWarn(ctx, "Skipping partner: partner_id=%d, error=%v", partnerID, err)
		}

		m.store.Update(jobID, func(j *domain.Job) {
			if result != nil && result.IsArticulated {
				j.Matches = append(j.Matches, *result)
				j.MatchedCount = len(j.Matches)
			}
			j.TotalProcessed++
			j.Progress = fmt.Sprintf("processed %d/%d", j.TotalProcessed, len(partners))
		})
	}

	var matched int
	m.store.Update(jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusCompleted
		j.Progress = "done"
		j.MatchedCount = len(j.Matches)
		j.Summary = fmt.Sprintf("%d of %d partner institutions articulate %s",
			len(j.Matches), len(partners), req.Course)
		matched = j.MatchedCount
	})

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldCount:      matched,
	}).Info(ctx, "Match run completed: partners=%d, matched=%d", len(partners), matched)
}

// processPartner handles one partner institution: locate the requested
// major's agreement record, download its document, and extract a verdict.
// A nil result with an error means the partner contributed nothing.
func (m *Matcher) processPartner(ctx context.Context, receivingID, partnerID int, req domain.MatchRequest) (*domain.MatchResult, error) {
	reports, err := m.directory.MajorReports(ctx, receivingID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list major agreements: %w", err)
	}

	var key string
	for _, report := range reports {
		if report.Label == req.Major {
			key = report.Key
			break
		}
	}
	if key == "" {
		return nil, fmt.Errorf("no agreement for major %q", req.Major)
	}

	data, err := m.fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artifact %s: %w", key, err)
	}

	text, err := m.converter.Text(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert artifact %s: %w", key, err)
	}

	verdict := articulation.Extract(text, req.Course)
	logger.CtxDebug(ctx, "Scanned partner document: partner_id=%d, artifact_key=%s, articulated=%v",
		partnerID, key, verdict.IsArticulated)

	return &domain.MatchResult{
		InstitutionName: verdict.InstitutionName,
		IsArticulated:   verdict.IsArticulated,
		ArticulatedText: verdict.ArticulatedText,
		ArtifactKey:     key,
	}, nil
}

// fail puts the job into its terminal failed state.
func (m *Matcher) fail(ctx context.Context, jobID string, err error) {
	logger.CtxError(ctx, "Match run failed: error=%v", err)

	m.store.Update(jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusFailed
		j.Error = err.Error()
		j.Matches = []domain.MatchResult{}
	})
}

// resolveInstitution finds the institution whose primary display name
// equals the requested name. Equality is exact and case-sensitive.
func resolveInstitution(institutions []catalog.Institution, name string) (int, bool) {
	for _, inst := range institutions {
		if inst.PrimaryName() == name {
			return inst.ID, true
		}
	}
	return 0, false
}

// dedupePartners flattens the agreement listing to unique partner ids,
// preserving first-occurrence order. The upstream may repeat a partner;
// processing it twice would just duplicate its verdict.
func dedupePartners(agreements []catalog.Agreement) []int {
	seen := make(map[int]struct{}, len(agreements))
	partners := make([]int, 0, len(agreements))
	for _, a := range agreements {
		if _, ok := seen[a.InstitutionParentID]; ok {
			continue
		}
		seen[a.InstitutionParentID] = struct{}{}
		partners = append(partners, a.InstitutionParentID)
	}
	return partners
}
