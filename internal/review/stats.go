// Package review aggregates, paginates and manages guest reviews fetched
// from the review service.
package review

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/resort-storefront/internal/model"
)

// CalculateStats returns the rating distribution and mean of reviews.
// Buckets are ordered 5 down to 1. Ratings outside 1..5 count towards the
// total and mean but fall in no bucket.
func CalculateStats(reviews []model.Review) model.RatingDistribution {
	var out model.RatingDistribution
	counts := [6]int{}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			counts[r.Rating]++
		}
	}
	out.Total = len(reviews)

	for i := range out.Distribution {
		star := 5 - i
		b := model.StarBucket{Star: star, Count: counts[star]}
		if out.Total > 0 {
			b.Percent = 100 * float64(b.Count) / float64(out.Total)
		}
		out.Distribution[i] = b
	}

	// halves round up: 3.25 shows as 3.3
	avg := decimal.Zero
	if out.Total > 0 {
		avg = decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(out.Total)))
	}
	out.AvgRating = avg.StringFixed(1)
	return out
}

// StatsForRoom aggregates only the reviews whose booking was for slug.
func StatsForRoom(reviews []model.Review, slug string) model.RatingDistribution {
	return CalculateStats(ForRoom(reviews, slug))
}

// ForRoom filters reviews down to one room.
func ForRoom(reviews []model.Review, slug string) []model.Review {
	out := make([]model.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Booking.Room.Slug == slug {
			out = append(out, r)
		}
	}
	return out
}

// Approved filters reviews down to the publicly visible ones.
func Approved(reviews []model.Review) []model.Review {
	out := make([]model.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Visible() {
			out = append(out, r)
		}
	}
	return out
}
