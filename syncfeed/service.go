/*
service.go - Feed ingestion

PURPOSE:
  Runs one sync against one provider: resolve it in the registry, check
  its persisted record is active and school-linked, fetch, dedup on
  external ids, convert marks, insert auto-sourced grades, and open topic
  reviews for weak grades. Homework ingestion follows the same shape.

RUN IDS:
  Every run gets a uuid so log lines and results can be correlated.
*/
package syncfeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hearthside/learning-hub/catalog"
	"github.com/hearthside/learning-hub/ledger"
)

// SyncResult summarizes one ingestion run.
type SyncResult struct {
	RunID          string `json:"run_id"`
	Provider       string `json:"provider"`
	Created        int    `json:"created"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
	ReviewsCreated int    `json:"reviews_created,omitempty"`
}

// Service runs feed ingestion.
type Service struct {
	store    ledger.TxStore
	cat      catalog.Store
	registry *Registry
	log      zerolog.Logger
	now      func() time.Time
}

// NewService builds the ingestion service.
func NewService(store ledger.TxStore, cat catalog.Store, registry *Registry, log zerolog.Logger) *Service {
	return &Service{store: store, cat: cat, registry: registry, log: log, now: time.Now}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// resolveRunnable resolves the provider in the registry and verifies its
// persisted record allows running.
func (s *Service) resolveRunnable(ctx context.Context, code string) (Provider, *catalog.SyncProvider, error) {
	provider, err := s.registry.Resolve(code)
	if err != nil {
		return nil, nil, err
	}
	record, err := s.cat.ProviderByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, fmt.Errorf("sync provider %q is not registered in the catalog", code)
	}
	if !record.Active {
		return nil, nil, fmt.Errorf("sync provider %q is not active", code)
	}
	if record.SchoolID == nil {
		return nil, nil, fmt.Errorf("sync provider %q has no linked school", code)
	}
	return provider, record, nil
}

// SetProviderActive flips a provider's active flag. Activation requires a
// linked school.
func (s *Service) SetProviderActive(ctx context.Context, code string, active bool) (*catalog.SyncProvider, error) {
	record, err := s.cat.ProviderByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("sync provider %q is not registered in the catalog", code)
	}
	if active && record.SchoolID == nil {
		return nil, fmt.Errorf("cannot activate provider %q: no linked school", code)
	}
	record.Active = active
	if err := s.cat.UpdateProvider(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// =============================================================================
// GRADES
// =============================================================================

// SyncGrades ingests grades reported since the given time.
func (s *Service) SyncGrades(ctx context.Context, providerCode string, since time.Time) (*SyncResult, error) {
	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Str("provider", providerCode).Logger()

	provider, record, err := s.resolveRunnable(ctx, providerCode)
	if err != nil {
		return nil, err
	}

	external, err := provider.FetchGrades(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetch grades from %q: %w", providerCode, err)
	}
	log.Info().Int("fetched", len(external)).Msg("grade sync started")

	result := &SyncResult{RunID: runID, Provider: providerCode}
	for _, eg := range external {
		existing, err := s.store.GradeByExternalID(ctx, eg.ExternalID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		value, err := ConvertMark(eg.RawMark)
		if err != nil {
			log.Warn().Str("external_id", eg.ExternalID).Str("mark", eg.RawMark).
				Err(err).Msg("skipping unconvertible mark")
			result.Failed++
			continue
		}

		subjectID, topicID, err := s.resolveSubjectTopic(ctx, *record.SchoolID, eg.SubjectName, eg.TopicDescription)
		if err != nil {
			return nil, err
		}

		externalID := eg.ExternalID
		grade := &ledger.Grade{
			SubjectID:      subjectID,
			SubjectTopicID: topicID,
			Value:          value,
			Date:           eg.Date,
			Source:         ledger.SourceAuto,
			ExternalID:     &externalID,
			OriginalValue:  eg.RawMark,
		}
		reviewOpened := false
		err = s.store.WithTx(ctx, func(st ledger.Store) error {
			if err := st.CreateGrade(ctx, grade); err != nil {
				return err
			}
			if value.NeedsReview() && topicID != nil {
				review := &ledger.TopicReview{
					SubjectID:      subjectID,
					SubjectTopicID: *topicID,
					GradeID:        grade.ID,
					Status:         ledger.ReviewPending,
				}
				if err := st.CreateReview(ctx, review); err != nil {
					return err
				}
				reviewOpened = true
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		result.Created++
		if reviewOpened {
			result.ReviewsCreated++
		}
	}

	log.Info().Int("created", result.Created).Int("skipped", result.Skipped).
		Int("failed", result.Failed).Int("reviews", result.ReviewsCreated).
		Msg("grade sync finished")
	return result, nil
}

// =============================================================================
// HOMEWORKS
// =============================================================================

// SyncHomeworks ingests assignments from the feed.
func (s *Service) SyncHomeworks(ctx context.Context, providerCode string) (*SyncResult, error) {
	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Str("provider", providerCode).Logger()

	provider, record, err := s.resolveRunnable(ctx, providerCode)
	if err != nil {
		return nil, err
	}

	external, err := provider.FetchHomeworks(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch homeworks from %q: %w", providerCode, err)
	}
	log.Info().Int("fetched", len(external)).Msg("homework sync started")

	result := &SyncResult{RunID: runID, Provider: providerCode}
	for _, eh := range external {
		existing, err := s.store.HomeworkByExternalID(ctx, eh.ExternalID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		subjectID, _, err := s.resolveSubjectTopic(ctx, *record.SchoolID, eh.SubjectName, "")
		if err != nil {
			return nil, err
		}

		externalID := eh.ExternalID
		assigned := eh.AssignedAt
		if assigned.IsZero() {
			assigned = s.now()
		}
		hw := &ledger.Homework{
			SubjectID:   subjectID,
			Description: eh.Description,
			Status:      ledger.HomeworkPending,
			AssignedAt:  assigned,
			DeadlineAt:  eh.DeadlineAt,
			ExternalID:  &externalID,
		}
		if err := s.store.CreateHomework(ctx, hw); err != nil {
			return nil, err
		}
		result.Created++
	}

	log.Info().Int("created", result.Created).Int("skipped", result.Skipped).
		Msg("homework sync finished")
	return result, nil
}

// resolveSubjectTopic finds or creates the subject (by name, under the
// provider's school) and, when a topic description is given, the topic.
// Name matching is case-insensitive so feeds that capitalize differently
// do not fork the catalog.
func (s *Service) resolveSubjectTopic(ctx context.Context, schoolID int64, subjectName, topicDescription string) (int64, *int64, error) {
	subjects, err := s.cat.ListSubjects(ctx, schoolID)
	if err != nil {
		return 0, nil, err
	}
	var subjectID int64
	for _, sub := range subjects {
		if strings.EqualFold(sub.Name, subjectName) {
			subjectID = sub.ID
			break
		}
	}
	if subjectID == 0 {
		sub := &catalog.Subject{SchoolID: schoolID, Name: subjectName}
		if err := s.cat.CreateSubject(ctx, sub); err != nil {
			return 0, nil, err
		}
		subjectID = sub.ID
	}

	if topicDescription == "" {
		return subjectID, nil, nil
	}
	topics, err := s.cat.ListTopics(ctx, subjectID)
	if err != nil {
		return 0, nil, err
	}
	for _, t := range topics {
		if strings.EqualFold(t.Description, topicDescription) {
			id := t.ID
			return subjectID, &id, nil
		}
	}
	topic := &catalog.SubjectTopic{SubjectID: subjectID, Description: topicDescription}
	if err := s.cat.CreateTopic(ctx, topic); err != nil {
		return 0, nil, err
	}
	id := topic.ID
	return subjectID, &id, nil
}
