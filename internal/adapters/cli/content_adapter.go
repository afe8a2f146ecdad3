package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/brewquest/internal/ports/primary"
)

// ContentAdapter translates CLI operations to ContentService calls.
type ContentAdapter struct {
	service primary.ContentService
	out     io.Writer
}

// NewContentAdapter creates a new ContentAdapter with the given service.
func NewContentAdapter(service primary.ContentService, out io.Writer) *ContentAdapter {
	return &ContentAdapter{
		service: service,
		out:     out,
	}
}

// AddReview schedules a draft review.
func (a *ContentAdapter) AddReview(ctx context.Context, req primary.AddReviewRequest) (*primary.Review, error) {
	review, err := a.service.AddReview(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	fmt.Fprintf(a.out, "%s Scheduled review %s\n", okMark(), review.ID)
	fmt.Fprintf(a.out, "  %s by %s, %s day %d\n", review.BeerName, review.Brewery, review.StateCode, review.DayNumber)
	return review, nil
}

// ListReviews lists a state's reviews by day.
func (a *ContentAdapter) ListReviews(ctx context.Context, stateCode string) ([]*primary.Review, error) {
	reviews, err := a.service.ListReviews(ctx, stateCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	if len(reviews) == 0 {
		fmt.Fprintf(a.out, "No reviews found for %s.\n", stateCode)
		return reviews, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DAY\tBEER\tBREWERY\tSTYLE\tRATING\tSTATUS")
	fmt.Fprintln(w, "---\t----\t-------\t-----\t------\t------")
	for _, r := range reviews {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f\t%s\n",
			r.DayNumber,
			r.BeerName,
			r.Brewery,
			dash(r.Style),
			r.Rating,
			r.Status,
		)
	}
	w.Flush()
	return reviews, nil
}

// AddPost records a social post.
func (a *ContentAdapter) AddPost(ctx context.Context, req primary.AddPostRequest) (*primary.Post, error) {
	post, err := a.service.AddPost(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to add post: %w", err)
	}

	fmt.Fprintf(a.out, "%s Created post %s (%s, %s)\n", okMark(), post.ID, post.Platform, post.Status)
	return post, nil
}

// ListPosts lists posts, newest first.
func (a *ContentAdapter) ListPosts(ctx context.Context, filters primary.PostFilters) ([]*primary.Post, error) {
	posts, err := a.service.ListPosts(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	if len(posts) == 0 {
		fmt.Fprintln(a.out, "No posts found.")
		return posts, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tPLATFORM\tSTATUS\tCREATED\tCONTENT")
	fmt.Fprintln(w, "--\t-----\t--------\t------\t-------\t-------")
	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			dash(p.StateCode),
			p.Platform,
			p.Status,
			p.CreatedAt,
			truncate(p.Content, 40),
		)
	}
	w.Flush()
	return posts, nil
}

// Subscribe adds a digest subscriber.
func (a *ContentAdapter) Subscribe(ctx context.Context, req primary.SubscribeRequest) (*primary.Subscriber, error) {
	sub, err := a.service.Subscribe(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to add subscriber: %w", err)
	}

	fmt.Fprintf(a.out, "%s Subscribed %s (%s)\n", okMark(), sub.Email, sub.ID)
	return sub, nil
}

// Unsubscribe stops digests for an address.
func (a *ContentAdapter) Unsubscribe(ctx context.Context, email string) error {
	if err := a.service.Unsubscribe(ctx, email); err != nil {
		return fmt.Errorf("failed to remove subscriber: %w", err)
	}

	fmt.Fprintf(a.out, "%s Unsubscribed %s\n", okMark(), email)
	return nil
}

// ListSubscribers lists every subscriber.
func (a *ContentAdapter) ListSubscribers(ctx context.Context) ([]*primary.Subscriber, error) {
	subs, err := a.service.ListSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	if len(subs) == 0 {
		fmt.Fprintln(a.out, "No subscribers found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Add one:")
		fmt.Fprintln(a.out, "  brewquest subscriber add hops@example.com --name \"Hop Head\"")
		return subs, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tSTATUS\tSINCE")
	fmt.Fprintln(w, "--\t-----\t----\t------\t-----")
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.Email,
			dash(s.Name),
			s.Status,
			s.CreatedAt,
		)
	}
	w.Flush()
	return subs, nil
}

// ListEvents lists recent analytics events with their payloads.
func (a *ContentAdapter) ListEvents(ctx context.Context, eventType string, limit int) ([]*primary.AnalyticsEvent, error) {
	events, err := a.service.ListEvents(ctx, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events recorded.")
		return events, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CREATED\tTYPE\tPAYLOAD")
	fmt.Fprintln(w, "-------\t----\t-------")
	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			payload = []byte("?")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.CreatedAt, e.EventType, payload)
	}
	w.Flush()
	return events, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
