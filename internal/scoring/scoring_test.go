package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/signals"
)

const testNow = int64(1_700_000_000)

// An aged wallet with plenty of history, so the freshness signal stays quiet.
func agedInput() Input {
	return Input{
		FirstTxTimestamp: testNow - 90*86400,
		TxCount:          500,
	}
}

func TestCalculateMixerFunding(t *testing.T) {
	input := agedInput()
	input.FundingType = signals.FundingMixer
	input.FunderName = "Tornado Cash"

	result := Calculate(input, testNow)

	assert.Equal(t, 35, result.Score)
	assert.Equal(t, LabelModerate, result.Label)
	assert.Len(t, result.Reasons, 1)
	assert.Contains(t, result.Reasons[0], "mixer")
	assert.Contains(t, result.Reasons[0], "Tornado Cash")
	assert.Contains(t, result.Reasons[0], "(+35)")
}

func TestCalculateCleanDeployer(t *testing.T) {
	input := agedInput()
	input.FundingType = signals.FundingDirect

	result := Calculate(input, testNow)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, LabelLow, result.Label)
	assert.Empty(t, result.Reasons)
}

func TestCalculateFreshWalletFastDeploy(t *testing.T) {
	input := Input{
		FundingType:      signals.FundingUnknown,
		FirstTxTimestamp: testNow - 3600,
		TxCount:          2,
		FundedAt:         testNow - 1200,
		DeployedAt:       testNow,
	}

	result := Calculate(input, testNow)

	// unknown 5 + fresh 10 + 30min band 15
	assert.Equal(t, 30, result.Score)
	assert.Equal(t, LabelModerate, result.Label)
	assert.Len(t, result.Reasons, 3)
}

func TestCalculateThreeHourBand(t *testing.T) {
	input := agedInput()
	input.FundingType = signals.FundingDirect
	input.FundedAt = testNow - 7200
	input.DeployedAt = testNow

	result := Calculate(input, testNow)

	assert.Equal(t, signals.WeightFastFundDeploy3h, result.Score)
	assert.Contains(t, result.Reasons[0], "120 minutes")
}

func TestCalculateExchangeCashOut(t *testing.T) {
	input := agedInput()
	input.FundingType = signals.FundingDirect
	input.Transfers = []Transfer{
		{Direction: "out", Counterparty: "ExchHot1", CounterpartyName: "Binance Hot Wallet", CounterpartyTags: []string{"exchange"}},
	}

	result := Calculate(input, testNow)

	assert.Equal(t, signals.WeightExchangeCashout, result.Score)
	assert.Contains(t, result.Reasons[0], "Binance Hot Wallet")
}

func TestCalculateSprayTransfers(t *testing.T) {
	input := agedInput()
	input.FundingType = signals.FundingDirect
	for i := 0; i < 5; i++ {
		input.Transfers = append(input.Transfers, Transfer{
			Direction:    "out",
			Counterparty: fmt.Sprintf("Recipient%d", i),
		})
	}

	result := Calculate(input, testNow)

	assert.Equal(t, signals.WeightSprayTransfers, result.Score)
	assert.Contains(t, result.Reasons[0], "5 wallets")
}

func TestCalculateSprayBelowThreshold(t *testing.T) {
	input := agedInput()
	input.FundingType = signals.FundingDirect
	for i := 0; i < 4; i++ {
		input.Transfers = append(input.Transfers, Transfer{
			Direction:    "out",
			Counterparty: fmt.Sprintf("Recipient%d", i),
		})
	}

	result := Calculate(input, testNow)
	assert.Equal(t, 0, result.Score)
}

func TestCalculateUnknowns(t *testing.T) {
	input := agedInput()
	input.FundingType = signals.FundingUnknown
	input.DeployerConfidence = "low"

	result := Calculate(input, testNow)

	assert.Equal(t, []string{
		"Original funding source is unclear",
		"Deployer identification has low confidence",
		"Original funding timestamp unknown",
	}, result.Unknowns)
	assert.Contains(t, result.Reasons[0], "(+5)")

	data, err := json.Marshal(result)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"unknowns"`)
}

func TestCalculateUnknownConfidence(t *testing.T) {
	input := agedInput()
	input.FundingType = signals.FundingDirect
	input.DeployerConfidence = "unknown"
	input.FundedAt = testNow - 86400

	result := Calculate(input, testNow)

	assert.Equal(t, []string{"Deployer wallet could not be determined with confidence"}, result.Unknowns)
}

func TestCalculateNoUnknownsWhenEvidenceComplete(t *testing.T) {
	input := agedInput()
	input.FundingType = signals.FundingDirect
	input.DeployerConfidence = "high"
	input.FundedAt = testNow - 86400

	result := Calculate(input, testNow)
	assert.Empty(t, result.Unknowns)
}

func TestCalculateReasonsCarryDeltas(t *testing.T) {
	input := Input{
		FundingType:      signals.FundingMixer,
		FirstTxTimestamp: testNow - 3600,
		TxCount:          2,
		FundedAt:         testNow - 600,
		DeployedAt:       testNow,
	}

	result := Calculate(input, testNow)

	deltas := []string{"(+35)", "(+10)", "(+15)"}
	assert.Len(t, result.Reasons, len(deltas))
	for i, d := range deltas {
		assert.True(t, strings.HasSuffix(result.Reasons[i], d), result.Reasons[i])
	}
}

func TestCalculateSprayCountsExchangeRecipients(t *testing.T) {
	input := agedInput()
	input.FundingType = signals.FundingDirect
	input.FundedAt = testNow - 86400
	input.Transfers = []Transfer{
		{Direction: "out", Counterparty: "Hot1", CounterpartyName: "Binance 2", CounterpartyTags: []string{"exchange"}},
	}
	for i := 0; i < 4; i++ {
		input.Transfers = append(input.Transfers, Transfer{
			Direction:    "out",
			Counterparty: fmt.Sprintf("Recipient%d", i),
		})
	}

	result := Calculate(input, testNow)

	// cashout 10 + spray 10: the exchange hot wallet is the fifth
	// distinct recipient.
	assert.Equal(t, 20, result.Score)
	assert.Contains(t, result.Reasons[1], "5 wallets")
}

func TestCalculateDeterministic(t *testing.T) {
	input := Input{
		FundingType:      signals.FundingMixer,
		FirstTxTimestamp: testNow - 3600,
		TxCount:          1,
		FundedAt:         testNow - 600,
		DeployedAt:       testNow,
	}

	first := Calculate(input, testNow)
	second := Calculate(input, testNow)
	assert.Equal(t, first, second)
}

func TestClampAndLabels(t *testing.T) {
	assert.Equal(t, 0, Clamp(-10))
	assert.Equal(t, 100, Clamp(150))
	assert.Equal(t, 60, Clamp(60))

	assert.Equal(t, LabelLow, LabelFor(0))
	assert.Equal(t, LabelLow, LabelFor(25))
	assert.Equal(t, LabelModerate, LabelFor(26))
	assert.Equal(t, LabelModerate, LabelFor(50))
	assert.Equal(t, LabelHigh, LabelFor(51))
	assert.Equal(t, LabelHigh, LabelFor(75))
	assert.Equal(t, LabelExtreme, LabelFor(76))
	assert.Equal(t, LabelExtreme, LabelFor(100))
}

func TestScoreAlwaysBounded(t *testing.T) {
	// Every signal firing at once still stays within bounds.
	input := Input{
		FundingType:      signals.FundingMixer,
		FirstTxTimestamp: 0,
		TxCount:          0,
		FundedAt:         testNow - 60,
		DeployedAt:       testNow,
	}
	input.Transfers = append(input.Transfers, Transfer{
		Direction: "out", Counterparty: "Hot", CounterpartyTags: []string{"exchange"},
	})
	for i := 0; i < 8; i++ {
		input.Transfers = append(input.Transfers, Transfer{
			Direction: "out", Counterparty: fmt.Sprintf("W%d", i),
		})
	}

	result := Calculate(input, testNow)
	assert.GreaterOrEqual(t, result.Score, 0)
	assert.LessOrEqual(t, result.Score, 100)
	assert.Equal(t, LabelFor(result.Score), result.Label)
}
