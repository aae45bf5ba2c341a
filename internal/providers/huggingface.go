package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"smartdocs-backend/internal/service/llm"
)

// Hosted model ids.
const (
	GenerationModel    = "microsoft/DialoGPT-small"
	SummarizationModel = "facebook/bart-large-cnn"
)

const huggingFaceName = "huggingface"

// HuggingFace calls the Hugging Face Inference API. It implements llm.Provider.
type HuggingFace struct {
	apiKey  string
	baseURL string
	client  *http.Client
	caller  *Caller
}

var _ llm.Provider = (*HuggingFace)(nil)

// NewHuggingFace creates a client. An empty apiKey leaves it unavailable.
func NewHuggingFace(apiKey, baseURL string, client *http.Client, caller *Caller) *HuggingFace {
	if client == nil {
		client = http.DefaultClient
	}
	return &HuggingFace{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		caller:  caller,
	}
}

// Name identifies the provider in metrics and breakers.
func (h *HuggingFace) Name() string { return huggingFaceName }

// IsAvailable reports whether an API key is configured.
func (h *HuggingFace) IsAvailable() bool { return h != nil && h.apiKey != "" }

type hfParameters struct {
	MaxLength         int     `json:"max_length,omitempty"`
	MinLength         int     `json:"min_length,omitempty"`
	Temperature       float64 `json:"temperature,omitempty"`
	DoSample          bool    `json:"do_sample"`
	TopP              float64 `json:"top_p,omitempty"`
	TopK              int     `json:"top_k,omitempty"`
	NumBeams          int     `json:"num_beams,omitempty"`
	LengthPenalty     float64 `json:"length_penalty,omitempty"`
	NoRepeatNgramSize int     `json:"no_repeat_ngram_size,omitempty"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfResult struct {
	GeneratedText   string `json:"generated_text"`
	SummaryText     string `json:"summary_text"`
	TranslationText string `json:"translation_text"`
}

// Complete dispatches on options.Task.
func (h *HuggingFace) Complete(ctx context.Context, prompt string, options llm.CompletionOptions) (string, error) {
	if !h.IsAvailable() {
		h.caller.Skip(huggingFaceName)
		return "", ErrNotConfigured
	}

	switch options.Task {
	case llm.TaskSummarization:
		return h.summarize(ctx, prompt, options)
	case llm.TaskTranslation:
		return h.translate(ctx, prompt, options)
	case llm.TaskGeneration, "":
		return h.generate(ctx, prompt, options)
	default:
		return "", fmt.Errorf("unsupported task %q", options.Task)
	}
}

func (h *HuggingFace) generate(ctx context.Context, prompt string, options llm.CompletionOptions) (string, error) {
	temperature := options.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	results, err := h.infer(ctx, GenerationModel, hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxLength:         options.MaxLength,
			Temperature:       temperature,
			DoSample:          true,
			TopP:              0.9,
			TopK:              50,
			NoRepeatNgramSize: 3,
		},
	})
	if err != nil {
		return "", err
	}
	// The model echoes the prompt before its continuation.
	text := strings.TrimSpace(strings.Replace(results[0].GeneratedText, prompt, "", 1))
	if text == "" {
		return "", ErrNoResult
	}
	return text, nil
}

func (h *HuggingFace) summarize(ctx context.Context, text string, options llm.CompletionOptions) (string, error) {
	results, err := h.infer(ctx, SummarizationModel, hfRequest{
		Inputs: text,
		Parameters: hfParameters{
			MaxLength:         options.MaxLength,
			MinLength:         options.MinLength,
			NumBeams:          4,
			LengthPenalty:     1.0,
			NoRepeatNgramSize: 3,
		},
	})
	if err != nil {
		return "", err
	}
	if results[0].SummaryText == "" {
		return "", ErrNoResult
	}
	return results[0].SummaryText, nil
}

func (h *HuggingFace) translate(ctx context.Context, text string, options llm.CompletionOptions) (string, error) {
	if len([]rune(text)) > 500 {
		text = string([]rune(text)[:500])
	}
	results, err := h.infer(ctx, TranslationModel(options.SourceLang, options.TargetLang), hfRequest{
		Inputs:     text,
		Parameters: hfParameters{MaxLength: len(text) + 100},
	})
	if err != nil {
		return "", err
	}
	out := results[0].TranslationText
	if out == "" || out == text {
		return "", ErrNoResult
	}
	return out, nil
}

func (h *HuggingFace) infer(ctx context.Context, model string, req hfRequest) ([]hfResult, error) {
	var results []hfResult
	err := h.caller.Do(ctx, huggingFaceName, func(ctx context.Context) error {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+h.apiKey)
		return DoJSON(ctx, h.client, huggingFaceName, http.MethodPost, h.baseURL+"/models/"+model, header, req, &results)
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResult
	}
	return results, nil
}

// TranslationModel returns the opus-mt model for a language pair.
// Japanese is published under the "jap" code.
func TranslationModel(source, target string) string {
	code := func(lang string) string {
		if lang == "ja" {
			return "jap"
		}
		return lang
	}
	return fmt.Sprintf("Helsinki-NLP/opus-mt-%s-%s", code(source), code(target))
}
