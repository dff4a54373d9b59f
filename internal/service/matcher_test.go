package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"transferscan/internal/catalog"
	"transferscan/internal/domain"
	"transferscan/internal/logger"
	"transferscan/internal/repository"
)

type fakeDirectory struct {
	institutions []catalog.Institution
	instErr      error

	agreements map[int][]catalog.Agreement
	agrErr     error

	reports    map[int][]catalog.Report // keyed by sending institution id
	reportErrs map[int]error
}

func (f *fakeDirectory) Institutions(ctx context.Context) ([]catalog.Institution, error) {
	return f.institutions, f.instErr
}

func (f *fakeDirectory) Agreements(ctx context.Context, receivingID int) ([]catalog.Agreement, error) {
	return f.agreements[receivingID], f.agrErr
}

func (f *fakeDirectory) MajorReports(ctx context.Context, receivingID, sendingID int) ([]catalog.Report, error) {
	if err := f.reportErrs[sendingID]; err != nil {
		return nil, err
	}
	return f.reports[sendingID], nil
}

type fakeFetcher struct {
	docs map[string][]byte
	errs map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	doc, ok := f.docs[key]
	if !ok {
		return nil, fmt.Errorf("artifact %s returned HTTP 404", key)
	}
	return doc, nil
}

// passthroughConverter treats every payload as already-extracted text.
type passthroughConverter struct {
	err error
}

func (c passthroughConverter) Text(ctx context.Context, data []byte) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return string(data), nil
}

func newTestMatcher(dir catalog.Directory, fetcher *fakeFetcher, conv TextConverter) (*Matcher, *repository.JobStore) {
	store := repository.NewJobStore()
	m := NewMatcher(dir, fetcher, conv, store, logger.New(nil))
	return m, store
}

func runJob(t *testing.T, m *Matcher, store *repository.JobStore, req domain.MatchRequest) domain.Job {
	t.Helper()
	store.Create("job-1")
	m.Run(context.Background(), "job-1", req)

	job, err := store.Get("job-1")
	if err != nil {
		t.Fatalf("job disappeared: %v", err)
	}
	return job
}

func ucla() []catalog.Institution {
	return []catalog.Institution{
		{ID: 1, Names: []catalog.InstitutionName{{Name: "UCLA"}, {Name: "University of California, Los Angeles"}}},
		{ID: 2, Names: []catalog.InstitutionName{{Name: "UC Berkeley"}}},
	}
}

func TestMatcher_HappyPath(t *testing.T) {
	dir := &fakeDirectory{
		institutions: ucla(),
		agreements:   map[int][]catalog.Agreement{1: {{InstitutionParentID: 5}, {InstitutionParentID: 7}}},
		reports: map[int][]catalog.Report{
			5: {{Label: "Mathematics", Key: "m5"}, {Label: "Computer Science", Key: "k5"}},
			7: {{Label: "Computer Science", Key: "k7"}},
		},
	}
	fetcher := &fakeFetcher{docs: map[string][]byte{
		"k5": []byte("From: Santa Monica College 2021-2022 CS 101 â†Accepted as CS1"),
		"k7": []byte("From: De Anza College 2021-2022 CS 101 â†No Course Articulated"),
	}}
	m, store := newTestMatcher(dir, fetcher, passthroughConverter{})

	job := runJob(t, m, store, domain.MatchRequest{InstitutionName: "UCLA", Major: "Computer Science", Course: "CS 101"})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed, got %q (error: %s)", job.Status, job.Error)
	}
	if job.TotalProcessed != 2 {
		t.Errorf("expected 2 processed partners, got %d", job.TotalProcessed)
	}
	if job.MatchedCount != 1 || len(job.Matches) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(job.Matches))
	}
	if job.Matches[0].InstitutionName != "Santa Monica College" {
		t.Errorf("expected match from Santa Monica College, got %q", job.Matches[0].InstitutionName)
	}
	if job.Matches[0].ArtifactKey != "k5" {
		t.Errorf("expected artifact key k5, got %q", job.Matches[0].ArtifactKey)
	}
	if job.Progress != "done" {
		t.Errorf("expected progress %q, got %q", "done", job.Progress)
	}
	if job.Summary != "1 of 2 partner institutions articulate CS 101" {
		t.Errorf("unexpected summary: %q", job.Summary)
	}
}

func TestMatcher_InstitutionResolutionIsCaseSensitive(t *testing.T) {
	dir := &fakeDirectory{institutions: ucla()}
	m, store := newTestMatcher(dir, &fakeFetcher{}, passthroughConverter{})

	job := runJob(t, m, store, domain.MatchRequest{InstitutionName: "ucla", Major: "Computer Science", Course: "CS 101"})

	if job.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed, got %q", job.Status)
	}
	if !strings.Contains(job.Error, "ucla") {
		t.Errorf("expected error to mention the requested name, got %q", job.Error)
	}
	if len(job.Matches) != 0 {
		t.Errorf("expected empty matches on failure, got %d", len(job.Matches))
	}
}

func TestMatcher_SecondaryNameVariantDoesNotResolve(t *testing.T) {
	dir := &fakeDirectory{institutions: ucla()}
	m, store := newTestMatcher(dir, &fakeFetcher{}, passthroughConverter{})

	job := runJob(t, m, store, domain.MatchRequest{
		InstitutionName: "University of California, Los Angeles",
		Major:           "Computer Science",
		Course:          "CS 101",
	})

	if job.Status != domain.JobStatusFailed {
		t.Errorf("expected resolution against the primary name only, got %q", job.Status)
	}
}

func TestMatcher_DirectoryErrorFailsJob(t *testing.T) {
	dir := &fakeDirectory{instErr: errors.New("upstream down")}
	m, store := newTestMatcher(dir, &fakeFetcher{}, passthroughConverter{})

	job := runJob(t, m, store, domain.MatchRequest{InstitutionName: "UCLA", Major: "Computer Science", Course: "CS 101"})

	if job.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed, got %q", job.Status)
	}
	if !strings.Contains(job.Error, "upstream down") {
		t.Errorf("expected wrapped upstream error, got %q", job.Error)
	}
}

func TestMatcher_AgreementErrorFailsJob(t *testing.T) {
	dir := &fakeDirectory{institutions: ucla(), agrErr: errors.New("listing broke")}
	m, store := newTestMatcher(dir, &fakeFetcher{}, passthroughConverter{})

	job := runJob(t, m, store, domain.MatchRequest{InstitutionName: "UCLA", Major: "Computer Science", Course: "CS 101"})

	if job.Status != domain.JobStatusFailed {
		t.Errorf("expected failed, got %q", job.Status)
	}
}

func TestMatcher_PartnerFailuresAreIsolated(t *testing.T) {
	dir := &fakeDirectory{
		institutions: ucla(),
		agreements: map[int][]catalog.Agreement{1: {
			{InstitutionParentID: 5}, // major listing errors
			{InstitutionParentID: 6}, // major not offered
			{InstitutionParentID: 7}, // fetch fails
			{InstitutionParentID: 8}, // articulates
		}},
		reports: map[int][]catalog.Report{
			6: {{Label: "History", Key: "h6"}},
			7: {{Label: "Computer Science", Key: "k7"}},
			8: {{Label: "Computer Science", Key: "k8"}},
		},
		reportErrs: map[int]error{5: errors.New("boom")},
	}
	fetcher := &fakeFetcher{
		docs: map[string][]byte{"k8": []byte("From: Foothill College 2021-2022 CS 101 â†Accepted as CS1")},
		errs: map[string]error{"k7": errors.New("timeout")},
	}
	m, store := newTestMatcher(dir, fetcher, passthroughConverter{})

	job := runJob(t, m, store, domain.MatchRequest{InstitutionName: "UCLA", Major: "Computer Science", Course: "CS 101"})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected per-partner failures to stay non-fatal, got %q (error: %s)", job.Status, job.Error)
	}
	if job.TotalProcessed != 4 {
		t.Errorf("expected all 4 partners counted, got %d", job.TotalProcessed)
	}
	if len(job.Matches) != 1 || job.Matches[0].ArtifactKey != "k8" {
		t.Errorf("expected only partner 8 to match, got %+v", job.Matches)
	}
}

func TestMatcher_ConverterErrorIsIsolated(t *testing.T) {
	dir := &fakeDirectory{
		institutions: ucla(),
		agreements:   map[int][]catalog.Agreement{1: {{InstitutionParentID: 5}}},
		reports:      map[int][]catalog.Report{5: {{Label: "Computer Science", Key: "k5"}}},
	}
	fetcher := &fakeFetcher{docs: map[string][]byte{"k5": []byte("%PDF garbage")}}
	m, store := newTestMatcher(dir, fetcher, passthroughConverter{err: errors.New("pdftotext failed")})

	job := runJob(t, m, store, domain.MatchRequest{InstitutionName: "UCLA", Major: "Computer Science", Course: "CS 101"})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed, got %q", job.Status)
	}
	if job.TotalProcessed != 1 || len(job.Matches) != 0 {
		t.Errorf("expected the partner counted but unmatched, got processed=%d matches=%d",
			job.TotalProcessed, len(job.Matches))
	}
}

func TestMatcher_DuplicatePartnersProcessedOnce(t *testing.T) {
	dir := &fakeDirectory{
		institutions: ucla(),
		agreements: map[int][]catalog.Agreement{1: {
			{InstitutionParentID: 5},
			{InstitutionParentID: 5},
			{InstitutionParentID: 7},
			{InstitutionParentID: 5},
		}},
		reports: map[int][]catalog.Report{
			5: {{Label: "Computer Science", Key: "k5"}},
			7: {{Label: "Computer Science", Key: "k7"}},
		},
	}
	fetcher := &fakeFetcher{docs: map[string][]byte{
		"k5": []byte("From: Santa Monica College 2021-2022 CS 101 â†Accepted as CS1"),
		"k7": []byte("From: De Anza College 2021-2022 CS 101 â†Accepted as CS1"),
	}}
	m, store := newTestMatcher(dir, fetcher, passthroughConverter{})

	job := runJob(t, m, store, domain.MatchRequest{InstitutionName: "UCLA", Major: "Computer Science", Course: "CS 101"})

	if job.TotalProcessed != 2 {
		t.Errorf("expected duplicates collapsed to 2 partners, got %d", job.TotalProcessed)
	}
	if len(job.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(job.Matches))
	}
	// Enumeration order is preserved
	if job.Matches[0].ArtifactKey != "k5" || job.Matches[1].ArtifactKey != "k7" {
		t.Errorf("expected matches in enumeration order, got %+v", job.Matches)
	}
}

func TestMatcher_FirstMatchingMajorWins(t *testing.T) {
	dir := &fakeDirectory{
		institutions: ucla(),
		agreements:   map[int][]catalog.Agreement{1: {{InstitutionParentID: 5}}},
		reports: map[int][]catalog.Report{
			5: {
				{Label: "Computer Science", Key: "first"},
				{Label: "Computer Science", Key: "second"},
			},
		},
	}
	fetcher := &fakeFetcher{docs: map[string][]byte{
		"first": []byte("CS 101 â†Accepted as CS1"),
	}}
	m, store := newTestMatcher(dir, fetcher, passthroughConverter{})

	job := runJob(t, m, store, domain.MatchRequest{InstitutionName: "UCLA", Major: "Computer Science", Course: "CS 101"})

	if len(job.Matches) != 1 || job.Matches[0].ArtifactKey != "first" {
		t.Errorf("expected only the first matching record considered, got %+v", job.Matches)
	}
}

func TestMatcher_DeniedScenario(t *testing.T) {
	// The single partner's document denies articulation for the course
	dir := &fakeDirectory{
		institutions: []catalog.Institution{{ID: 1, Names: []catalog.InstitutionName{{Name: "UCLA"}}}},
		agreements:   map[int][]catalog.Agreement{1: {{InstitutionParentID: 5}}},
		reports:      map[int][]catalog.Report{5: {{Label: "Computer Science", Key: "k1"}}},
	}
	fetcher := &fakeFetcher{docs: map[string][]byte{
		"k1": []byte("From: Santa Monica College 2021-2022 catalog CS 101 â†No Course Articulated here"),
	}}
	m, store := newTestMatcher(dir, fetcher, passthroughConverter{})

	job := runJob(t, m, store, domain.MatchRequest{InstitutionName: "UCLA", Major: "Computer Science", Course: "CS 101"})

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed, got %q", job.Status)
	}
	if job.MatchedCount != 0 || len(job.Matches) != 0 {
		t.Errorf("expected zero matches for a denied articulation, got %d", len(job.Matches))
	}
	if job.TotalProcessed != 1 {
		t.Errorf("expected 1 processed partner, got %d", job.TotalProcessed)
	}
}
