package deployer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

const profileNow = int64(1_700_000_000)

func TestPersonalityNewDeployer(t *testing.T) {
	p := BuildPersonality(emptyHistory("Fresh"), profileNow)

	assert.Equal(t, ProfileNewDeployer, p.ProfileType)
	assert.Equal(t, ConfidenceLow, p.Confidence)
	assert.Equal(t, signals.LevelMedium, p.RiskLevel)
	assert.Contains(t, p.RiskIndicators, "New deployer with no history")
}

func TestPersonalityNilHistory(t *testing.T) {
	p := BuildPersonality(nil, profileNow)
	assert.Equal(t, ProfileNewDeployer, p.ProfileType)
}

func TestPersonalitySerialRugger(t *testing.T) {
	// Launches hours apart, most rugged with immediate-removal wording.
	var tokens []DeployedToken
	for i := 0; i < 5; i++ {
		token := DeployedToken{
			Mint:       fmt.Sprintf("Mint%d", i),
			Name:       fmt.Sprintf("MoonDog%d", i),
			DeployedAt: profileNow - int64(5-i)*7200,
		}
		if i < 4 {
			token.IsRugged = true
			token.CurrentStatus = StatusDead
			token.RugIndicators = []string{"Immediate liquidity removal", "Large deployer sell detected"}
		} else {
			token.CurrentStatus = StatusActive
		}
		tokens = append(tokens, token)
	}
	h := summarize("SerialDeployer", tokens)
	assert.Equal(t, 80, h.RugRate)

	p := BuildPersonality(h, profileNow)

	assert.Equal(t, ProfileSerialRugger, p.ProfileType)
	assert.Equal(t, ConfidenceHigh, p.Confidence)
	assert.Equal(t, signals.LevelExtreme, p.RiskLevel)
	assert.Equal(t, "rapid", p.Timing.LaunchFrequency)
	assert.Equal(t, "immediate", p.Liquidity.RemovalSpeed)
}

func TestPersonalityLegitimate(t *testing.T) {
	var tokens []DeployedToken
	for i := 0; i < 4; i++ {
		tokens = append(tokens, DeployedToken{
			Mint:          fmt.Sprintf("Mint%d", i),
			Name:          fmt.Sprintf("ProtocolGovernance%d", i),
			DeployedAt:    profileNow - int64(4-i)*45*86400,
			CurrentStatus: StatusActive,
		})
	}
	h := summarize("GoodDeployer", tokens)

	p := BuildPersonality(h, profileNow)

	assert.Equal(t, ProfileLegitimate, p.ProfileType)
	assert.Equal(t, ConfidenceMedium, p.Confidence)
	assert.Equal(t, signals.LevelLow, p.RiskLevel)
	assert.Equal(t, "rare", p.Timing.LaunchFrequency)
	assert.Equal(t, "holds", p.Liquidity.RemovalSpeed)
}

func TestPersonalityPumpAndDumper(t *testing.T) {
	var tokens []DeployedToken
	for i := 0; i < 6; i++ {
		token := DeployedToken{
			Mint:       fmt.Sprintf("Mint%d", i),
			Name:       fmt.Sprintf("Token%d", i),
			DeployedAt: profileNow - int64(6-i)*10*86400,
		}
		if i < 5 {
			token.CurrentStatus = StatusDead
			token.IsRugged = i < 3
		} else {
			token.CurrentStatus = StatusActive
		}
		tokens = append(tokens, token)
	}
	h := summarize("Dumper", tokens)

	p := BuildPersonality(h, profileNow)

	assert.Equal(t, ProfilePumpAndDumper, p.ProfileType)
	assert.Equal(t, ConfidenceHigh, p.Confidence)
	assert.Equal(t, signals.LevelHigh, p.RiskLevel)
}

func TestNamingPatternsDetectMemeStyle(t *testing.T) {
	tokens := []DeployedToken{
		{Name: "SafeMoonDoge", DeployedAt: profileNow - 86400, CurrentStatus: StatusActive},
		{Name: "PepeRocket", DeployedAt: profileNow - 2*86400, CurrentStatus: StatusActive},
		{Name: "BonkInu", DeployedAt: profileNow - 3*86400, CurrentStatus: StatusActive},
	}

	naming := analyzeNaming(tokens)

	assert.True(t, naming.UsesMemeCoinNames)
	assert.Equal(t, "meme", naming.NamingStyle)
	assert.NotEmpty(t, naming.CommonThemes)
}

func TestTimingPatternSingleLaunchUnknown(t *testing.T) {
	timing := analyzeTiming([]DeployedToken{{DeployedAt: profileNow}})
	assert.Equal(t, "unknown", timing.LaunchFrequency)
	assert.Zero(t, timing.AvgDaysBetweenLaunches)
}
