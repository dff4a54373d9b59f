package domain

import "time"

// JobStatus represents the lifecycle state of a matching job.
// Transitions are JobStatusProcessing -> JobStatusCompleted or
// JobStatusProcessing -> JobStatusFailed; terminal states never change.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job represents one matching run and its pollable progress metadata.
// Matches holds only the partners whose agreement articulates the course,
// in partner enumeration order.
type Job struct {
	ID             string        `json:"id"`
	Status         JobStatus     `json:"status"`
	Progress       string        `json:"progress"`
	Matches        []MatchResult `json:"matches"`
	Error          string        `json:"error,omitempty"`
	TotalProcessed int           `json:"totalProcessed"`
	MatchedCount   int           `json:"matchedCount"`
	Summary        string        `json:"summary,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// MatchResult is the per-partner verdict produced from one fetched
// agreement document. Immutable after creation.
type MatchResult struct {
	InstitutionName string `json:"institutionName"`
	IsArticulated   bool   `json:"isArticulated"`
	ArticulatedText string `json:"articulatedText,omitempty"`
	ArtifactKey     string `json:"artifactKey"`
	Error           string `json:"error,omitempty"`
}

// MatchRequest is the job submission payload.
type MatchRequest struct {
	InstitutionName string `json:"institutionName" binding:"required"`
	Major           string `json:"major" binding:"required"`
	Course          string `json:"course" binding:"required"`
}
