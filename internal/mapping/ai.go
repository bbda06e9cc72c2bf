package mapping

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sheetRecon/internal/logger"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultModel   = "gemini-2.0-flash"
	requestTimeout = 60 * time.Second
	minConfidence  = 0.8
	noMatch        = "NO_MATCH"
)

// Suggestion is an AI-proposed role for one ledger header.
type Suggestion struct {
	Header     string
	Role       Role
	Confidence float64
}

// Suggester proposes roles for ledger headers.
type Suggester interface {
	Suggest(ctx context.Context, headers []string) ([]Suggestion, error)
}

var _ Suggester = (*AIMapper)(nil)

// AIMapper asks Gemini which ledger headers carry which role.
type AIMapper struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	debugDir string
}

// NewAIMapper creates a Gemini-backed suggester. When debugDir is non-empty
// each exchange is also written there as a text file.
func NewAIMapper(ctx context.Context, apiKey, debugDir string) (*AIMapper, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		logger.Error("Failed to create Gemini client", "error", err)
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(defaultModel)
	model.SetTemperature(0.1)

	logger.Info("AI mapper initialized", "model", defaultModel)
	return &AIMapper{client: client, model: model, debugDir: debugDir}, nil
}

func (ai *AIMapper) Close() error {
	if ai.client != nil {
		return ai.client.Close()
	}
	return nil
}

// Suggest returns confident, non-conflicting role suggestions.
func (ai *AIMapper) Suggest(ctx context.Context, headers []string) ([]Suggestion, error) {
	if len(headers) == 0 {
		return nil, errors.New("no ledger headers to map")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	prompt := buildPrompt(headers)
	logger.Debug("AI prompt", "length", len(prompt))

	start := time.Now()
	resp, err := ai.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		logger.Error("Gemini request failed", "error", err, "duration", time.Since(start))
		ai.debug(headers, nil, err)
		return nil, fmt.Errorf("failed to generate AI response: %w", err)
	}
	logger.Info("Received response from Gemini", "duration", time.Since(start))

	text, err := responseText(resp)
	if err != nil {
		ai.debug(headers, nil, err)
		return nil, err
	}

	suggestions := parseSuggestions(text, headers)
	ai.debug(headers, suggestions, nil)
	return suggestions, nil
}

func (ai *AIMapper) debug(headers []string, suggestions []Suggestion, err error) {
	if ai.debugDir == "" {
		return
	}
	if werr := saveSuggestionsToFile(ai.debugDir, headers, suggestions, err); werr != nil {
		logger.Warn("Failed to write AI debug file", "error", werr)
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response generated from AI")
	}
	var b strings.Builder
	for i, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		} else {
			logger.Warn("Non-text part in response", "index", i, "type", fmt.Sprintf("%T", part))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no response generated from AI")
	}
	return b.String(), nil
}

func buildPrompt(headers []string) string {
	var b strings.Builder
	b.WriteString(`You are helping configure a shipment ledger import. The ledger is a CSV export from a warehouse system, usually with Japanese column names.

TASK: For each ledger column, decide whether it holds one of these roles, or answer NO_MATCH.

ROLES:
- DESTINATION: the delivery destination name (e.g. 届け先名)
- ITEM_CODE: the product or item code (e.g. 商品コード)
- QUANTITY: the shipped quantity actually inspected or shipped (e.g. 出荷実績検品数, 出荷実績数)

LEDGER COLUMNS:
`)
	for _, h := range headers {
		fmt.Fprintf(&b, "- %s\n", h)
	}
	b.WriteString(`
INSTRUCTIONS:
1. Each role belongs to at most one column
2. Only answer with roles you are confident about (>80% certainty)
3. Consider meaning, not just text similarity

OUTPUT FORMAT (one line per ledger column):
Column|Role|Confidence

EXAMPLES:
届け先名|DESTINATION|0.97
商品コード|ITEM_CODE|0.95
伝票番号|NO_MATCH|0.00

Now map the ledger columns:`)
	return b.String()
}

// parseSuggestions keeps lines naming a known header and role with enough
// confidence. When a role is claimed twice the more confident line wins.
func parseSuggestions(response string, headers []string) []Suggestion {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[strings.TrimSpace(h)] = true
	}

	best := map[Role]Suggestion{}
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.Trim(strings.TrimSpace(line), "`")
		parts := strings.Split(line, "|")
		if len(parts) != 3 {
			continue
		}
		header := strings.TrimSpace(parts[0])
		if !known[header] {
			logger.Debug("Skipping unknown column", "content", line)
			continue
		}
		if strings.TrimSpace(parts[1]) == noMatch {
			continue
		}
		role, ok := ParseRole(parts[1])
		if !ok {
			logger.Debug("Skipping unknown role", "content", line)
			continue
		}
		confidence, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || confidence < minConfidence {
			continue
		}
		if prev, ok := best[role]; ok && prev.Confidence >= confidence {
			continue
		}
		best[role] = Suggestion{Header: header, Role: role, Confidence: confidence}
	}

	var out []Suggestion
	for _, r := range Roles {
		if s, ok := best[r]; ok {
			out = append(out, s)
		}
	}
	logger.Info("AI suggestions parsed", "suggestions", len(out))
	return out
}

// Merge applies suggestions on top of m for roles m leaves unassigned, and
// returns m.
func Merge(m Mapping, suggestions []Suggestion) Mapping {
	for _, s := range suggestions {
		if m[s.Role] != "" {
			continue
		}
		if _, taken := m.RoleOf(s.Header); taken {
			continue
		}
		m.Set(s.Role, s.Header)
	}
	return m
}

// GetGeminiAPIKey gets the API key from environment variable
func GetGeminiAPIKey() string {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Debug("GEMINI_API_KEY environment variable not set")
	}
	return apiKey
}
