package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MarketplaceMetrics counts business events of the booking domain.
type MarketplaceMetrics struct {
	sessionsBooked    metric.Int64Counter
	bookingConflicts  metric.Int64Counter
	statusTransitions metric.Int64Counter
	reviewsRecorded   metric.Int64Counter
	ratingValue       metric.Int64Histogram
	tutorsVerified    metric.Int64Counter
	searches          metric.Int64Counter
}

func NewMarketplaceMetrics(meter metric.Meter) (*MarketplaceMetrics, error) {
	mm := &MarketplaceMetrics{}

	var err error

	mm.sessionsBooked, err = meter.Int64Counter(
		"marketplace.sessions.booked",
		metric.WithDescription("Sessions booked by students"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	mm.bookingConflicts, err = meter.Int64Counter(
		"marketplace.sessions.conflicts",
		metric.WithDescription("Bookings rejected because the slot was taken"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	mm.statusTransitions, err = meter.Int64Counter(
		"marketplace.sessions.transitions",
		metric.WithDescription("Session status changes"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	mm.reviewsRecorded, err = meter.Int64Counter(
		"marketplace.reviews.recorded",
		metric.WithDescription("Reviews written for completed sessions"),
		metric.WithUnit("{review}"),
	)
	if err != nil {
		return nil, err
	}

	mm.ratingValue, err = meter.Int64Histogram(
		"marketplace.reviews.rating",
		metric.WithDescription("Distribution of submitted ratings"),
		metric.WithUnit("{star}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5),
	)
	if err != nil {
		return nil, err
	}

	mm.tutorsVerified, err = meter.Int64Counter(
		"marketplace.tutors.verified",
		metric.WithDescription("Admin verification decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	mm.searches, err = meter.Int64Counter(
		"marketplace.tutors.searches",
		metric.WithDescription("Tutor directory searches"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, err
	}

	return mm, nil
}

func (mm *MarketplaceMetrics) RecordSessionBooked(ctx context.Context, sessionType string) {
	if mm != nil && mm.sessionsBooked != nil {
		mm.sessionsBooked.Add(ctx, 1, metric.WithAttributes(attribute.String("session_type", sessionType)))
	}
}

func (mm *MarketplaceMetrics) RecordBookingConflict(ctx context.Context) {
	if mm != nil && mm.bookingConflicts != nil {
		mm.bookingConflicts.Add(ctx, 1)
	}
}

func (mm *MarketplaceMetrics) RecordTransition(ctx context.Context, from, to, actor string) {
	if mm != nil && mm.statusTransitions != nil {
		mm.statusTransitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
			attribute.String("actor", actor),
		))
	}
}

func (mm *MarketplaceMetrics) RecordReview(ctx context.Context, rating int) {
	if mm != nil && mm.reviewsRecorded != nil {
		mm.reviewsRecorded.Add(ctx, 1)
		mm.ratingValue.Record(ctx, int64(rating))
	}
}

func (mm *MarketplaceMetrics) RecordVerification(ctx context.Context, status string) {
	if mm != nil && mm.tutorsVerified != nil {
		mm.tutorsVerified.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func (mm *MarketplaceMetrics) RecordSearch(ctx context.Context, results int) {
	if mm != nil && mm.searches != nil {
		mm.searches.Add(ctx, 1, metric.WithAttributes(attribute.Bool("empty", results == 0)))
	}
}
