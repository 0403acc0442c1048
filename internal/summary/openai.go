package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cannedoxygen/trench-transparency-terminal/internal/config"
)

const (
	systemPrompt = `You are a crypto security analyst helping traders avoid rug pulls and scams on Solana.
You analyze on-chain data and provide clear, actionable warnings.
Be direct and blunt. Traders need quick answers.
Use emojis sparingly for emphasis on critical warnings.
Never give financial advice, just risk assessment based on data.`

	completionTimeout = 20 * time.Second
	maxTokens         = 500
	temperature       = 0.7
)

// OpenAI generates summaries through an OpenAI-compatible chat completions
// endpoint. Every failure path degrades to the rule-based Fallback.
type OpenAI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	fallback   Fallback
	log        zerolog.Logger
}

// New picks a summarizer from the config: the model-backed one when
// enabled with an API key, the rule-based fallback otherwise.
func New(cfg config.SummaryConfig, log zerolog.Logger) Summarizer {
	if !cfg.Enabled || cfg.APIKey == "" {
		log.Info().Msg("model summaries disabled, using rule-based fallback")
		return Fallback{}
	}
	return &OpenAI{
		httpClient: &http.Client{Timeout: completionTimeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		log:        log.With().Str("component", "summary").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize implements Summarizer.
func (o *OpenAI) Summarize(ctx context.Context, in Input) *Summary {
	content, err := o.complete(ctx, buildPrompt(in))
	if err != nil {
		o.log.Warn().Err(err).Str("mint", in.Mint).Msg("completion failed, using fallback")
		return o.fallback.Summarize(ctx, in)
	}
	return parseResponse(content, in)
}

func (o *OpenAI) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}

func buildPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("Analyze this Solana token for rug pull risk:\n\n")

	name, symbol := in.TokenName, in.TokenSymbol
	if name == "" {
		name = "Unknown"
	}
	if symbol == "" {
		symbol = "???"
	}
	fmt.Fprintf(&b, "TOKEN: %s (%s)\n", name, symbol)
	fmt.Fprintf(&b, "Mint: %s\n\n", in.Mint)

	b.WriteString("DEPLOYER ANALYSIS:\n")
	addr := in.DeployerAddress
	if addr == "" {
		addr = "Unknown"
	}
	fmt.Fprintf(&b, "- Address: %s\n", addr)
	fmt.Fprintf(&b, "- Detection confidence: %s\n", in.DeployerConfidence)
	if in.History != nil {
		fmt.Fprintf(&b, "- Previous tokens launched: %d\n", in.History.TotalTokens)
		fmt.Fprintf(&b, "- Rugged tokens: %d\n", in.History.RuggedTokens)
		fmt.Fprintf(&b, "- Rug rate: %d%%\n", in.History.RugRate)
	}

	b.WriteString("\nFUNDING SOURCE:\n")
	fmt.Fprintf(&b, "- Type: %s\n", in.FundingType)
	entity := in.FundingEntity
	if entity == "" {
		entity = "Unknown"
	}
	fmt.Fprintf(&b, "- Source: %s\n", entity)

	if len(in.DeployerTags) > 0 {
		fmt.Fprintf(&b, "\nDEPLOYER TAGS: %s\n", strings.Join(in.DeployerTags, ", "))
	}

	if in.Holders != nil {
		b.WriteString("\nHOLDER ANALYSIS:\n")
		fmt.Fprintf(&b, "- Total holders: %d\n", in.Holders.TotalHolders)
		fmt.Fprintf(&b, "- Top 10 concentration: %.2f%%\n", in.Holders.Top10Concentration)
		fmt.Fprintf(&b, "- Sniper wallets detected: %d\n", in.Holders.SniperCount)
		fmt.Fprintf(&b, "- Insider wallets detected: %d\n", in.Holders.InsiderCount)
		fmt.Fprintf(&b, "- Deployer holding: %.2f%%\n", in.Holders.DeployerHolding)
		if len(in.Holders.Warnings) > 0 {
			fmt.Fprintf(&b, "- Warnings: %s\n", strings.Join(in.Holders.Warnings, "; "))
		}
	}

	fmt.Fprintf(&b, "\nCURRENT RISK SCORE: %d/100 (%s)\n", in.Score, in.Label)
	fmt.Fprintf(&b, "Signals: %s\n", strings.Join(in.Reasons, "; "))

	b.WriteString("\n---\n")
	b.WriteString("Provide a JSON response with:\n")
	b.WriteString("1. verdict: \"safe\", \"caution\", \"danger\", or \"extreme_danger\"\n")
	b.WriteString("2. headline: One punchy line (max 10 words)\n")
	b.WriteString("3. summary: 2-3 sentences explaining the risk\n")
	b.WriteString("4. keyPoints: Array of 3-4 bullet points with key findings\n")
	b.WriteString("5. recommendation: One sentence advice\n")
	b.WriteString("\nRespond ONLY with valid JSON.")
	return b.String()
}

// parseResponse extracts the JSON block from a completion. Malformed
// output degrades to the raw text plus score-derived fields.
func parseResponse(content string, in Input) *Summary {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		var parsed struct {
			Verdict        Verdict  `json:"verdict"`
			Headline       string   `json:"headline"`
			Summary        string   `json:"summary"`
			KeyPoints      []string `json:"keyPoints"`
			Recommendation string   `json:"recommendation"`
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err == nil {
			s := &Summary{
				Verdict:        parsed.Verdict,
				Headline:       parsed.Headline,
				Summary:        parsed.Summary,
				KeyPoints:      parsed.KeyPoints,
				Recommendation: parsed.Recommendation,
			}
			if s.Verdict == "" {
				s.Verdict = VerdictFor(in.Score)
			}
			if s.Headline == "" {
				s.Headline = "Analysis Complete"
			}
			if s.Summary == "" {
				s.Summary = "Unable to generate detailed summary."
			}
			if s.KeyPoints == nil {
				s.KeyPoints = []string{}
			}
			if s.Recommendation == "" {
				s.Recommendation = "Do your own research."
			}
			return s
		}
	}

	text := content
	if len(text) > 300 {
		text = text[:300]
	}
	return &Summary{
		Verdict:        VerdictFor(in.Score),
		Headline:       "Analysis Complete",
		Summary:        text,
		KeyPoints:      firstN(in.Reasons, 4),
		Recommendation: "Review the detailed analysis below.",
	}
}
