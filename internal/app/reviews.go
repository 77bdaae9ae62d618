package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookreviews/internal/util"
	"bookreviews/pkg/domain"
	"bookreviews/pkg/store"
)

const (
	refineSystemPrompt = "You are a helpful assistant that improves book reviews while maintaining their original meaning and sentiment."

	refineUserPromptFormat = "Please improve the following book review while maintaining its original sentiment and key points.\nMake it more clear, professional, and engaging:\n\n\"%s\""
)

// ReviewPage is the review listing envelope.
type ReviewPage struct {
	Reviews      []domain.Review `json:"reviews"`
	CurrentPage  int             `json:"currentPage"`
	TotalPages   int             `json:"totalPages"`
	TotalReviews int64           `json:"totalReviews"`
}

// ListReviewsParams scopes a review listing. Zero page/limit take defaults.
type ListReviewsParams struct {
	BookID string
	UserID string
	Page   int
	Limit  int
}

// ListReviews returns a newest-first page of reviews, optionally scoped to a
// book or a user. Listed reviews embed reviewer and book summaries.
func (a *App) ListReviews(ctx context.Context, params ListReviewsParams) (ReviewPage, error) {
	page, limit, fields := normalizePage(params.Page, params.Limit)
	if len(fields) > 0 {
		return ReviewPage{}, validationError(fields)
	}
	reviews, total, err := a.store.ListReviews(store.ReviewFilter{
		BookID: strings.TrimSpace(params.BookID),
		UserID: strings.TrimSpace(params.UserID),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return ReviewPage{}, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return ReviewPage{
		Reviews:      reviews,
		CurrentPage:  page,
		TotalPages:   totalPages(total, limit),
		TotalReviews: total,
	}, nil
}

// ReviewInput carries the fields of a new review.
type ReviewInput struct {
	BookID  string `json:"bookId"`
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

// CreateReview writes one user's review of a book and recomputes the book's
// aggregates. A user gets exactly one review per book; under concurrent
// creates the composite unique index lets one insert win and the rest
// surface as a conflict.
func (a *App) CreateReview(ctx context.Context, userID string, in ReviewInput) (domain.Review, error) {
	if fields := validateReviewInput(in); len(fields) > 0 {
		return domain.Review{}, validationError(fields)
	}
	if _, found, err := a.store.GetBook(in.BookID); err != nil {
		return domain.Review{}, fmt.Errorf("fetch book: %w", err)
	} else if !found {
		return domain.Review{}, ErrBookNotFound
	}

	// Friendly pre-check; the index is the arbiter.
	existing, _, err := a.store.ListReviews(store.ReviewFilter{BookID: in.BookID, UserID: userID, Page: 1, Limit: 1})
	if err != nil {
		return domain.Review{}, fmt.Errorf("check existing review: %w", err)
	}
	if len(existing) > 0 {
		return domain.Review{}, ErrDuplicateReview
	}

	now := time.Now().UTC()
	review := domain.Review{
		ID:              util.NewID(),
		BookID:          in.BookID,
		UserID:          userID,
		Rating:          in.Rating,
		OriginalContent: in.Content,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.store.CreateReview(review); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return domain.Review{}, ErrDuplicateReview
		}
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}

	a.recomputeAggregates(ctx, in.BookID)
	a.publishReviewEvent(ctx, "review.created", review)
	return review, nil
}

// ReviewPatch carries a partial review update. Nil fields stay unchanged.
type ReviewPatch struct {
	Rating  *int    `json:"rating"`
	Content *string `json:"content"`
}

// UpdateReview applies a partial update to the caller's review. Any update
// clears previous refinement output; a changed rating triggers an aggregate
// recompute on the parent book.
func (a *App) UpdateReview(ctx context.Context, userID, reviewID string, patch ReviewPatch) (domain.Review, error) {
	if fields := validateReviewPatch(patch); len(fields) > 0 {
		return domain.Review{}, validationError(fields)
	}
	review, found, err := a.store.GetReview(reviewID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("fetch review: %w", err)
	}
	if !found {
		return domain.Review{}, ErrReviewNotFound
	}
	if review.UserID != userID {
		return domain.Review{}, ErrNotReviewOwner
	}

	ratingChanged := false
	if patch.Rating != nil && *patch.Rating != review.Rating {
		review.Rating = *patch.Rating
		ratingChanged = true
	}
	if patch.Content != nil {
		review.OriginalContent = *patch.Content
	}
	review.RefinedContent = ""
	review.IsRefined = false
	review.UpdatedAt = time.Now().UTC()

	if err := a.store.UpdateReview(review); err != nil {
		return domain.Review{}, fmt.Errorf("update review: %w", err)
	}
	if ratingChanged {
		a.recomputeAggregates(ctx, review.BookID)
	}
	return review, nil
}

// DeleteReview removes the caller's review and recomputes the book's
// aggregates, returning them to zero when no reviews remain.
func (a *App) DeleteReview(ctx context.Context, userID, reviewID string) error {
	review, found, err := a.store.GetReview(reviewID)
	if err != nil {
		return fmt.Errorf("fetch review: %w", err)
	}
	if !found {
		return ErrReviewNotFound
	}
	if review.UserID != userID {
		return ErrNotReviewOwner
	}
	if err := a.store.DeleteReview(reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	a.recomputeAggregates(ctx, review.BookID)
	a.publishReviewEvent(ctx, "review.deleted", review)
	return nil
}

// RefineReview sends the review's original text to the completion
// collaborator and stores the improved version. Re-running overwrites the
// previous refinement.
func (a *App) RefineReview(ctx context.Context, userID, reviewID string) (domain.Review, error) {
	review, found, err := a.store.GetReview(reviewID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("fetch review: %w", err)
	}
	if !found {
		return domain.Review{}, ErrReviewNotFound
	}
	if review.UserID != userID {
		return domain.Review{}, ErrNotReviewOwner
	}
	if a.generator == nil {
		return domain.Review{}, fmt.Errorf("%w: no completion provider configured", ErrRefinementFailed)
	}

	prompt := fmt.Sprintf(refineUserPromptFormat, review.OriginalContent)
	refined, err := a.generator.GenerateText(ctx, refineSystemPrompt, prompt)
	if err != nil {
		return domain.Review{}, fmt.Errorf("%w: %v", ErrRefinementFailed, err)
	}

	review.RefinedContent = refined
	review.IsRefined = true
	review.UpdatedAt = time.Now().UTC()
	if err := a.store.UpdateReview(review); err != nil {
		return domain.Review{}, fmt.Errorf("store refinement: %w", err)
	}
	a.publishReviewEvent(ctx, "review.refined", review)
	return review, nil
}

// recomputeAggregates rebuilds a book's average rating and review count from
// the full review set. Failures are logged and do not roll back the review
// write that triggered them; the next write self-heals the aggregates.
func (a *App) recomputeAggregates(ctx context.Context, bookID string) {
	logger := util.LoggerFromContext(ctx)
	reviews, err := a.store.ReviewsForBook(bookID)
	if err != nil {
		logger.Error("aggregate recompute failed", "book_id", bookID, "error", err)
		return
	}
	var average float64
	if len(reviews) > 0 {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		average = float64(sum) / float64(len(reviews))
	}
	if err := a.store.SetBookAggregates(bookID, average, int64(len(reviews))); err != nil {
		logger.Error("aggregate recompute failed", "book_id", bookID, "error", err)
	}
}

type reviewEvent struct {
	ReviewID string `json:"reviewId"`
	BookID   string `json:"bookId"`
	UserID   string `json:"userId"`
	Rating   int    `json:"rating"`
}

func (a *App) publishReviewEvent(ctx context.Context, routingKey string, review domain.Review) {
	err := a.events.Publish(ctx, routingKey, reviewEvent{
		ReviewID: review.ID,
		BookID:   review.BookID,
		UserID:   review.UserID,
		Rating:   review.Rating,
	})
	if err != nil {
		util.LoggerFromContext(ctx).Warn("event publish failed", "routing_key", routingKey, "error", err)
	}
}
