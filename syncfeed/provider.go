/*
Package syncfeed ingests grades and homeworks from external school feeds.

PURPOSE:
  Providers implement a small fetch interface and are registered once at
  startup; ingestion deduplicates on the upstream's own identifiers,
  converts raw marks onto the 1-5 scale, records grades as source=auto,
  and opens topic reviews for weak grades.

PROVIDERS:
  A provider is code + fetch. The registry is populated at startup from
  the process configuration; resolving an unknown code is an error, there
  is no dynamic string dispatch at call time. Whether a provider may run
  is a separate, persisted concern: its catalog record must be active and
  linked to a school.
*/
package syncfeed

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ExternalGrade is one grade as the upstream feed reports it.
type ExternalGrade struct {
	ExternalID       string    `json:"external_id"`
	SubjectName      string    `json:"subject"`
	TopicDescription string    `json:"topic,omitempty"`
	RawMark          string    `json:"mark"`
	Date             time.Time `json:"date"`
}

// ExternalHomework is one assignment as the upstream feed reports it.
type ExternalHomework struct {
	ExternalID  string     `json:"external_id"`
	SubjectName string     `json:"subject"`
	Description string     `json:"description"`
	AssignedAt  time.Time  `json:"assigned_at"`
	DeadlineAt  *time.Time `json:"deadline_at,omitempty"`
}

// Provider fetches from one external feed.
type Provider interface {
	Code() string
	FetchGrades(ctx context.Context, since time.Time) ([]ExternalGrade, error)
	FetchHomeworks(ctx context.Context) ([]ExternalHomework, error)
}

// Registry holds the providers known to this process. Populated once at
// startup.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. A duplicate code is a programming error.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.Code()]; exists {
		return fmt.Errorf("provider %q registered twice", p.Code())
	}
	r.providers[p.Code()] = p
	return nil
}

// Resolve returns the provider for code.
func (r *Registry) Resolve(code string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[code]
	if !ok {
		return nil, fmt.Errorf("unknown sync provider %q", code)
	}
	return p, nil
}

// Codes lists the registered provider codes, sorted.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.providers))
	for code := range r.providers {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
