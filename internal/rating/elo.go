// internal/rating/elo.go
//
// Classic ELO arithmetic. Ratings update symmetrically from the same
// pair of pre-match values; the K-factor is chosen per participant
// from their own games-played count (provisional players move faster).
package rating

import "math"

const (
	// DefaultRating is assigned to participants with no record.
	DefaultRating = 1200

	// provisionalGames is the games-played threshold below which the
	// higher K-factor applies.
	provisionalGames = 30

	kProvisional = 40
	kEstablished = 32
)

// Expected returns the expected score of a player rated ra against an
// opponent rated rb. 0.5 means equal chances.
func Expected(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/400))
}

// KFactor returns the update step size for a participant with the
// given games-played count.
func KFactor(gamesPlayed int) int {
	if gamesPlayed < provisionalGames {
		return kProvisional
	}
	return kEstablished
}

// Next computes the post-match rating for a player with the given
// pre-match rating, K-factor, actual score (1, 0.5 or 0) and expected
// score, rounded to the nearest integer.
func Next(old, k int, score, expected float64) int {
	return int(math.Round(float64(old) + float64(k)*(score-expected)))
}
