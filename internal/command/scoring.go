package command

import "github.com/and161185/league-keeper/internal/model"

// DefaultStartingScore is the starting score for a match with players per side.
func DefaultStartingScore(players int) int {
	if players >= 4 {
		return 601
	}
	return 501
}

// DefaultNumberOfLegs is the number of legs for a match with players per side.
// Matches of four or more players have no default.
func DefaultNumberOfLegs(players int) *int {
	switch {
	case players == 1:
		return ptr(5)
	case players == 2 || players == 3:
		return ptr(3)
	default:
		return nil
	}
}

// playersPerSide is the larger of the two sides of m.
func playersPerSide(m model.GameMatch) int {
	return max(len(m.HomePlayers), len(m.AwayPlayers))
}

// WithMatchOptionDefaults returns options parallel to matches where missing starting scores and
// leg counts are derived from the number of players. Options beyond the last match are kept.
func WithMatchOptionDefaults(options []model.GameMatchOption, matches []model.GameMatch) []model.GameMatchOption {
	n := max(len(options), len(matches))
	if n == 0 {
		return nil
	}
	out := make([]model.GameMatchOption, n)
	for i := range out {
		var opt model.GameMatchOption
		if i < len(options) {
			opt = options[i]
		}
		if opt.PlayerCount == 0 && i < len(matches) {
			opt.PlayerCount = playersPerSide(matches[i])
		}
		if opt.PlayerCount > 0 {
			if opt.StartingScore == nil {
				opt.StartingScore = ptr(DefaultStartingScore(opt.PlayerCount))
			}
			if opt.NumberOfLegs == nil {
				opt.NumberOfLegs = DefaultNumberOfLegs(opt.PlayerCount)
			}
		}
		out[i] = opt
	}
	return out
}
