// Package jobs runs the delayed follow-up steps of a case (auto-verify, auto-assign).
//
// Jobs are keyed by kind and case id, so scheduling the same job twice keeps a single
// entry. Handlers must tolerate redelivery and a case that no longer exists.
package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Job kinds
const (
	KindAutoVerify = "auto_verify"
	KindAutoAssign = "auto_assign"
)

// Job is a unit of delayed work on a case
type Job struct {
	Kind   string
	CaseID string
}

// Key identifies the job in a queue
func (j Job) Key() string {
	return j.Kind + ":" + j.CaseID
}

// ParseKey is the inverse of Job.Key
func ParseKey(key string) (Job, error) {
	kind, caseID, ok := strings.Cut(key, ":")
	if !ok || kind == "" || caseID == "" {
		return Job{}, errors.Newf("malformed job key %q", key)
	}
	return Job{Kind: kind, CaseID: caseID}, nil
}

// Handler runs a due job. Returned errors are logged, never retried.
type Handler func(ctx context.Context, job Job) error

// Queue schedules jobs to run after a delay
type Queue interface {
	// Schedule is a no-op when the same job is already waiting
	Schedule(ctx context.Context, job Job, delay time.Duration) error
	// Cancel drops a waiting job; cancelling an unknown job is not an error
	Cancel(ctx context.Context, job Job) error
	// Start begins delivering due jobs to h
	Start(ctx context.Context, h Handler)
	Close() error
}
