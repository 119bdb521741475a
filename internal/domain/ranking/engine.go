package ranking

import (
	"fmt"
	"math"

	"github.com/matchpoint/club-rank/internal/domain/match"
)

// DefaultKFactor is the uniform K applied to every update. There is no
// provisional or variable K in this design.
const DefaultKFactor = 32

// Update is the engine output for one participant.
type Update struct {
	Record       Record
	RatingBefore int
	Delta        int
}

// ExpectedScore is the logistic expectation for a side rated ratingA
// against a side rated ratingB.
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
}

// SideRating collapses a side's individual ratings into one side rating:
// the single rating for singles, the round-half-up arithmetic mean for
// doubles.
func SideRating(ratings []int) int {
	if len(ratings) == 1 {
		return ratings[0]
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return roundHalfUp(float64(sum) / float64(len(ratings)))
}

// SideDelta computes the requesting side's rating delta for one match.
// The receiving side's delta is the exact negation: the zero-sum property
// holds by construction because only one rounding happens.
func SideDelta(requestingRating, receivingRating int, result match.Result, k int) int {
	expected := ExpectedScore(requestingRating, receivingRating)
	return roundHalfUp(float64(k) * (actualScore(result) - expected))
}

// Compute applies one completed match to the current rating records of
// both sides. Each record must belong to the side it is passed under;
// absent records should be seeded with NewRecord before calling. The
// returned updates carry the new rating, counters and per-participant
// delta. Per-participant ratings are floored at 0 after applying the
// shared side delta, so a floored participant's recorded delta differs
// from the side delta.
func Compute(requesting, receiving []Record, result match.Result, k int) ([]Update, error) {
	if len(requesting) == 0 || len(requesting) > 2 || len(requesting) != len(receiving) {
		return nil, fmt.Errorf("sides must have 1 or 2 participants each, got %d vs %d", len(requesting), len(receiving))
	}
	if k <= 0 {
		k = DefaultKFactor
	}

	delta := SideDelta(sideRatingOf(requesting), sideRatingOf(receiving), result, k)

	updates := make([]Update, 0, len(requesting)+len(receiving))
	for _, rec := range requesting {
		updates = append(updates, applyDelta(rec, delta, sideOutcome(result, match.SideRequesting)))
	}
	for _, rec := range receiving {
		updates = append(updates, applyDelta(rec, -delta, sideOutcome(result, match.SideReceiving)))
	}
	return updates, nil
}

type outcome int

const (
	outcomeWin outcome = iota
	outcomeLoss
	outcomeDraw
)

func applyDelta(rec Record, delta int, o outcome) Update {
	before := rec.Rating
	after := before + delta
	if after < 0 {
		after = 0
	}
	rec.Rating = after
	switch o {
	case outcomeWin:
		rec.Wins++
	case outcomeLoss:
		rec.Losses++
	case outcomeDraw:
		rec.Draws++
	}
	return Update{
		Record:       rec,
		RatingBefore: before,
		Delta:        after - before,
	}
}

func sideOutcome(result match.Result, side match.Side) outcome {
	if result == match.ResultDraw {
		return outcomeDraw
	}
	won := (result == match.ResultRequestingWon && side == match.SideRequesting) ||
		(result == match.ResultReceivingWon && side == match.SideReceiving)
	if won {
		return outcomeWin
	}
	return outcomeLoss
}

func actualScore(result match.Result) float64 {
	switch result {
	case match.ResultRequestingWon:
		return 1
	case match.ResultReceivingWon:
		return 0
	default:
		return 0.5
	}
}

func sideRatingOf(records []Record) int {
	ratings := make([]int, len(records))
	for i, rec := range records {
		ratings[i] = rec.Rating
	}
	return SideRating(ratings)
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
