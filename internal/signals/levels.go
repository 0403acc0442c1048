package signals

// Level is the four-tier risk ranking used by every component analysis.
type Level string

const (
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelHigh    Level = "high"
	LevelExtreme Level = "extreme"
)

// Rug-rate tier cutoffs, shared by the history engine, the personality
// profiler and the reputation scorer (with inverted sign for reputation).
const (
	RugRateExtreme = 75
	RugRateHigh    = 50
	RugRateMedium  = 25
)

// LevelForRugRate maps a deployer rug rate (percent) to a risk level.
func LevelForRugRate(rugRate int) Level {
	switch {
	case rugRate >= RugRateExtreme:
		return LevelExtreme
	case rugRate >= RugRateHigh:
		return LevelHigh
	case rugRate >= RugRateMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Max returns the more severe of two levels.
func (l Level) Max(other Level) Level {
	if l.rank() >= other.rank() {
		return l
	}
	return other
}

func (l Level) rank() int {
	switch l {
	case LevelExtreme:
		return 3
	case LevelHigh:
		return 2
	case LevelMedium:
		return 1
	default:
		return 0
	}
}
