/*
review.go - Topic review tracker

PURPOSE:
  Tracks which topics need reinforcement after a below-best grade and
  decides which one to practice next. Reviews open when a weak grade
  arrives, accumulate repeat work, and close either manually or
  automatically once the repeat count reaches the threshold configured for
  the triggering grade's value.

PRIORITY:
  The "what should we practice next" ordering is: worst grade first, then
  fewest repeats, then newest. The pick among the top candidates is
  deliberately random so the same topic is not drilled every single time.
*/
package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// DefaultPriorityLimit is how many top-priority reviews the picker
// considers.
const DefaultPriorityLimit = 4

// Tracker manages topic reviews.
type Tracker struct {
	store    TxStore
	settings Settings
	rnd      *rand.Rand
}

// NewTracker builds a tracker over the given store.
func NewTracker(store TxStore, settings Settings) *Tracker {
	return &Tracker{
		store:    store,
		settings: settings,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand overrides the tracker's randomness source. Tests only.
func (t *Tracker) WithRand(rnd *rand.Rand) *Tracker {
	t.rnd = rnd
	return t
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// CreateReview opens a review for the grade. The grade must exist and
// carry a topic; a grade can trigger at most one review.
func (t *Tracker) CreateReview(ctx context.Context, gradeID int64) (*TopicReview, error) {
	var review *TopicReview
	err := t.store.WithTx(ctx, func(s Store) error {
		grade, err := s.GradeByID(ctx, gradeID)
		if err != nil {
			return err
		}
		if grade == nil {
			return fmt.Errorf("grade %d not found", gradeID)
		}
		if grade.SubjectTopicID == nil {
			return fmt.Errorf("grade %d has no topic to review", gradeID)
		}
		existing, err := s.ReviewByGrade(ctx, gradeID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: grade %d", ErrDuplicateReview, gradeID)
		}
		review = &TopicReview{
			SubjectID:      grade.SubjectID,
			SubjectTopicID: *grade.SubjectTopicID,
			GradeID:        gradeID,
			Status:         ReviewPending,
		}
		return s.CreateReview(ctx, review)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// IncrementRepeat bumps the repeat count. A missing review returns
// (nil, nil).
func (t *Tracker) IncrementRepeat(ctx context.Context, reviewID int64) (*TopicReview, error) {
	review, err := t.store.ReviewByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, nil
	}
	review.RepeatCount++
	if err := t.store.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// MarkReinforced closes a review. A missing review returns (nil, nil);
// closing an already reinforced review is a no-op.
func (t *Tracker) MarkReinforced(ctx context.Context, reviewID int64) (*TopicReview, error) {
	review, err := t.store.ReviewByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, nil
	}
	if review.Status == ReviewReinforced {
		return review, nil
	}
	review.Status = ReviewReinforced
	if err := t.store.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// =============================================================================
// QUERIES AND PRIORITY
// =============================================================================

// List lists reviews through the filter.
func (t *Tracker) List(ctx context.Context, f ReviewFilter) ([]*TopicReview, error) {
	return t.store.ListReviews(ctx, f)
}

// PendingForTopic returns the pending reviews for one topic.
func (t *Tracker) PendingForTopic(ctx context.Context, topicID int64) ([]*TopicReview, error) {
	return t.store.ListReviews(ctx, ReviewFilter{Status: ReviewPending, SubjectTopicID: topicID})
}

// TopPriority returns the top pending reviews, worst grade first, fewest
// repeats, newest. limit <= 0 uses DefaultPriorityLimit.
func (t *Tracker) TopPriority(ctx context.Context, limit int) ([]*TopicReview, error) {
	if limit <= 0 {
		limit = DefaultPriorityLimit
	}
	return t.store.PendingReviewsByPriority(ctx, limit)
}

// PickPriority returns one review chosen uniformly among the top-priority
// candidates, or nil when nothing is pending.
func (t *Tracker) PickPriority(ctx context.Context) (*TopicReview, error) {
	candidates, err := t.TopPriority(ctx, DefaultPriorityLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates[t.rnd.Intn(len(candidates))], nil
}

// =============================================================================
// REPEAT BUMP + AUTO-CLOSURE
// =============================================================================

// bumpPendingReviewsForTopic increments the repeat count on every pending
// review of the topic and auto-closes those whose count reached the
// threshold for their triggering grade's value. Runs against the caller's
// transactional store view.
func bumpPendingReviewsForTopic(ctx context.Context, s Store, settings Settings, topicID int64) (updated, reinforced []*TopicReview, err error) {
	pending, err := s.ListReviews(ctx, ReviewFilter{Status: ReviewPending, SubjectTopicID: topicID})
	if err != nil {
		return nil, nil, err
	}
	for _, review := range pending {
		review.RepeatCount++

		grade, err := s.GradeByID(ctx, review.GradeID)
		if err != nil {
			return nil, nil, err
		}
		closed := false
		if grade != nil {
			if threshold, ok := settings.AutoCloseAt(grade.Value); ok && review.RepeatCount >= threshold {
				review.Status = ReviewReinforced
				closed = true
			}
		}
		if err := s.UpdateReview(ctx, review); err != nil {
			return nil, nil, err
		}
		if closed {
			reinforced = append(reinforced, review)
		} else {
			updated = append(updated, review)
		}
	}
	return updated, reinforced, nil
}
