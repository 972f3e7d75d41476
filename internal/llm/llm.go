package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultOllamaModel    = "ministral-3:latest"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultOpenAIBase     = "https://api.openai.com/v1"
	defaultAnthropicModel = "claude-sonnet-4-5"
	// Lyrics are short; the caps keep a pasted novel from blowing the context window.
	maxLyricsChars    = 60_000
	maxSelectionChars = 20_000
	maxContextChars   = 40_000
)

const defaultLLMHTTPTimeout = 3 * time.Minute

// Provider names accepted by NewFromEnv.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config describes how to build an LLM client.
type Config struct {
	Provider   string
	Model      string
	Endpoint   string
	HTTPClient *http.Client
}

// Client exposes the songwriting helpers.
type Client interface {
	AnalyzeRhyme(ctx context.Context, lyrics string) (RhymeAnalysis, error)
	QuickAction(ctx context.Context, action Action, selected, full string) (string, error)
	Name() string
}

// Action is a one-shot rewrite applied to selected text.
type Action string

const (
	ActionSummarize   Action = "summarize"
	ActionFixGrammar  Action = "fix_grammar"
	ActionTranslateEN Action = "translate_en"
)

// Actions lists the quick actions in menu order.
var Actions = []Action{ActionSummarize, ActionFixGrammar, ActionTranslateEN}

// Label is the menu text for the action.
func (a Action) Label() string {
	switch a {
	case ActionSummarize:
		return "Summarize"
	case ActionFixGrammar:
		return "Fix grammar"
	case ActionTranslateEN:
		return "Translate to English"
	default:
		return string(a)
	}
}

// RhymeAnalysis is the structured rhyme and meter report.
type RhymeAnalysis struct {
	Stats  RhymeStats `json:"stats"`
	Meter  Meter      `json:"meter"`
	Rhymes []Rhyme    `json:"rhymes"`
}

type RhymeStats struct {
	TotalLines  int    `json:"totalLines"`
	RhymedLines int    `json:"rhymedLines"`
	RhymeScheme string `json:"rhymeScheme"`
}

type Meter struct {
	Pattern     string   `json:"pattern"`
	Syllables   []int    `json:"syllables"`
	Suggestions []string `json:"suggestions"`
}

// Rhyme links the last word of a line to the words it rhymes with.
type Rhyme struct {
	Line      int         `json:"line"`
	Word      string      `json:"word"`
	RhymeWith []RhymePair `json:"rhymeWith"`
}

type RhymePair struct {
	Word string `json:"word"`
	Type string `json:"type"`
}

// NewFromEnv inspects configuration & environment variables to build a client.
// Without an explicit provider, ANTHROPIC_API_KEY selects Anthropic,
// OPENAI_API_KEY selects OpenAI and everything else falls back to Ollama.
func NewFromEnv(cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		switch {
		case os.Getenv("ANTHROPIC_API_KEY") != "":
			provider = ProviderAnthropic
		case os.Getenv("OPENAI_API_KEY") != "":
			provider = ProviderOpenAI
		default:
			provider = ProviderOllama
		}
	}
	switch provider {
	case ProviderOllama:
		return newOllamaFromEnv(cfg), nil
	case ProviderOpenAI:
		return newOpenAIFromEnv(cfg)
	case ProviderAnthropic:
		return newAnthropicFromEnv(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func newOllamaFromEnv(cfg Config) *ollamaClient {
	host := cfg.Endpoint
	if host == "" {
		if env := os.Getenv("OLLAMA_HOST"); env != "" {
			host = env
		} else {
			host = "http://localhost:11434"
		}
	}
	model := cfg.Model
	if model == "" {
		if env := os.Getenv("OLLAMA_MODEL"); env != "" {
			model = env
		} else {
			model = defaultOllamaModel
		}
	}
	return &ollamaClient{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: pickHTTPClient(cfg.HTTPClient),
	}
}

func newOpenAIFromEnv(cfg Config) (*openAIClient, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	base := cfg.Endpoint
	if base == "" {
		if env := os.Getenv("OPENAI_BASE_URL"); env != "" {
			base = env
		} else {
			base = defaultOpenAIBase
		}
	}
	model := cfg.Model
	if model == "" {
		if env := os.Getenv("OPENAI_MODEL"); env != "" {
			model = env
		} else {
			model = defaultOpenAIModel
		}
	}
	return &openAIClient{
		apiKey: key,
		model:  model,
		base:   strings.TrimRight(base, "/"),
		client: pickHTTPClient(cfg.HTTPClient),
	}, nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Allow longer-running generations (Ollama often needs >60s) and rely on the caller's context for cancellation.
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}

// generateFunc sends a single prompt and returns the raw completion.
type generateFunc func(ctx context.Context, prompt string) (string, error)

func analyzeRhyme(ctx context.Context, generate generateFunc, lyrics string) (RhymeAnalysis, error) {
	context := clipText(lyrics, maxLyricsChars)
	if context == "" {
		return RhymeAnalysis{}, fmt.Errorf("lyrics empty; cannot analyze rhyme")
	}
	raw, err := generate(ctx, buildRhymePrompt(context))
	if err != nil {
		return RhymeAnalysis{}, err
	}
	return parseRhymeAnalysis(raw)
}

func quickAction(ctx context.Context, generate generateFunc, action Action, selected, full string) (string, error) {
	selected = clipText(selected, maxSelectionChars)
	if selected == "" {
		return "", fmt.Errorf("select some text first")
	}
	prompt, err := buildActionPrompt(action, selected, clipText(full, maxContextChars))
	if err != nil {
		return "", err
	}
	out, err := generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("action %q failed: %w", action, err)
	}
	return strings.TrimSpace(out), nil
}
