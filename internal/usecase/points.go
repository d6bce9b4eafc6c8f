package usecase

import "github.com/sunnygoyal1983/play11-w-sub000/internal/domain/player"

// PointsInput carries one player's cumulative match line for scoring.
type PointsInput struct {
	Runs           int
	Balls          int
	Fours          int
	Sixes          int
	Out            bool
	Wickets        int
	Overs          float64
	Maidens        int
	RunsConceded   int
	BowledOrLbw    int
	Catches        int
	Stumpings      int
	RunOutDirect   int
	RunOutIndirect int
	Role           player.Role
}

const (
	pointsPerRun         = 1.0
	pointsPerFour        = 1.0
	pointsPerSix         = 2.0
	pointsHalfCentury    = 8.0
	pointsCentury        = 16.0
	pointsDuck           = -2.0
	pointsPerWicket      = 25.0
	pointsBowledOrLbw    = 8.0
	pointsThreeWickets   = 4.0
	pointsFourWickets    = 8.0
	pointsFiveWickets    = 16.0
	pointsPerMaiden      = 12.0
	pointsPerCatch       = 8.0
	pointsThreeCatches   = 4.0
	pointsPerStumping    = 12.0
	pointsRunOutDirect   = 12.0
	pointsRunOutIndirect = 6.0
)

// CalculatePoints is the deterministic fantasy scoring function. It is
// pure: the same input always yields the same score. Economy and
// strike-rate bonuses are role-gated so a part-time over or a bowler's
// tail-end batting does not swing their score.
func CalculatePoints(in PointsInput) float64 {
	points := battingPoints(in) + bowlingPoints(in) + fieldingPoints(in)
	return points
}

func battingPoints(in PointsInput) float64 {
	points := float64(in.Runs)*pointsPerRun +
		float64(in.Fours)*pointsPerFour +
		float64(in.Sixes)*pointsPerSix

	switch {
	case in.Runs >= 100:
		points += pointsCentury
	case in.Runs >= 50:
		points += pointsHalfCentury
	}

	// Duck penalty. A bowler getting out for nought is not punished.
	if in.Out && in.Runs == 0 && in.Balls > 0 && in.Role != player.RoleBowler {
		points += pointsDuck
	}

	if in.Role != player.RoleBowler && in.Balls >= 10 {
		points += strikeRateBonus(in.Runs, in.Balls)
	}

	return points
}

func bowlingPoints(in PointsInput) float64 {
	points := float64(in.Wickets)*pointsPerWicket +
		float64(in.BowledOrLbw)*pointsBowledOrLbw +
		float64(in.Maidens)*pointsPerMaiden

	switch {
	case in.Wickets >= 5:
		points += pointsFiveWickets
	case in.Wickets >= 4:
		points += pointsFourWickets
	case in.Wickets >= 3:
		points += pointsThreeWickets
	}

	if in.Role.IsBowlingRole() && in.Overs >= 2 {
		points += economyBonus(in.RunsConceded, in.Overs)
	}

	return points
}

func fieldingPoints(in PointsInput) float64 {
	points := float64(in.Catches)*pointsPerCatch +
		float64(in.Stumpings)*pointsPerStumping +
		float64(in.RunOutDirect)*pointsRunOutDirect +
		float64(in.RunOutIndirect)*pointsRunOutIndirect

	if in.Catches >= 3 {
		points += pointsThreeCatches
	}

	return points
}

func strikeRateBonus(runs, balls int) float64 {
	sr := float64(runs) / float64(balls) * 100
	switch {
	case sr > 170:
		return 6
	case sr > 150:
		return 4
	case sr > 130:
		return 2
	case sr < 50:
		return -6
	case sr < 60:
		return -4
	case sr < 70:
		return -2
	default:
		return 0
	}
}

func economyBonus(runsConceded int, overs float64) float64 {
	balls := oversToBalls(overs)
	if balls == 0 {
		return 0
	}
	economy := float64(runsConceded) / (float64(balls) / 6)
	switch {
	case economy < 5:
		return 6
	case economy < 6:
		return 4
	case economy < 7:
		return 2
	case economy > 12:
		return -6
	case economy > 11:
		return -4
	case economy > 10:
		return -2
	default:
		return 0
	}
}

// oversToBalls converts cricket overs notation (4.3 means four overs
// and three balls) into a ball count.
func oversToBalls(overs float64) int {
	whole := int(overs)
	frac := overs - float64(whole)
	extra := int(frac*10 + 0.5)
	if extra > 5 {
		extra = 5
	}
	return whole*6 + extra
}
