package translation

import (
	"context"
	"errors"
	"testing"

	"smartdocs-backend/internal/observability"
	"smartdocs-backend/internal/providers"
	"smartdocs-backend/internal/service/llm"
	appErrors "smartdocs-backend/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslator struct {
	name       string
	configured bool
	out        string
	err        error
	calls      int
}

func (f *fakeTranslator) Name() string     { return f.name }
func (f *fakeTranslator) Configured() bool { return f.configured }
func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.calls++
	return f.out, f.err
}

func newTestService(t *testing.T, model *llm.Service, translators ...providers.Translator) (*Service, *observability.Collector) {
	t.Helper()
	dict, err := LoadDictionary()
	require.NoError(t, err)
	metrics := observability.NewCollector("test")
	return NewService(model, translators, dict, NewMemory(), metrics, nil), metrics
}

func TestTranslateWithoutProviders(t *testing.T) {
	svc, metrics := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		content    string
		want       string
		wantMethod string
	}{
		{name: "dictionary hit", content: "Hello", want: "Hola", wantMethod: MethodDictionary},
		{name: "keeps punctuation", content: "Hello, World!", want: "Hola, Mundo!", wantMethod: MethodDictionary},
		{name: "keeps upper case", content: "HELLO world", want: "HOLA mundo", wantMethod: MethodDictionary},
		{name: "unmapped phrase", content: "Quantum flux capacitor", want: "[ES] Quantum flux capacitor", wantMethod: MethodPassthrough},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Translate(ctx, TranslateRequest{Content: tt.content, SourceLanguage: "en", TargetLanguage: "es"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.TranslatedContent)
			assert.Equal(t, tt.wantMethod, res.Method)
			assert.False(t, res.TranslationMemoryUsed)
		})
	}

	// Passthrough answers are not cached.
	assert.Equal(t, 3, svc.MemoryStats().TotalEntries)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.TranslationMemory))
}

func TestTranslationMemoryHit(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	req := TranslateRequest{Content: "Hello World", SourceLanguage: "en", TargetLanguage: "es"}

	first, err := svc.Translate(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.TranslationMemoryUsed)

	second, err := svc.Translate(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.TranslationMemoryUsed)
	assert.Equal(t, first.TranslatedContent, second.TranslatedContent)
	assert.Equal(t, MethodDictionary, second.Method)

	stats := svc.MemoryStats()
	require.Len(t, stats.MostUsed, 1)
	assert.Equal(t, 2, stats.MostUsed[0].UsageCount)
	assert.Equal(t, "en → es", stats.MostUsed[0].Languages)
	assert.Equal(t, map[string]int{"en-es": 1}, stats.LanguagePairs)

	skip := false
	req.UseTranslationMemory = &skip
	third, err := svc.Translate(ctx, req)
	require.NoError(t, err)
	assert.False(t, third.TranslationMemoryUsed)
}

func TestTranslateValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Translate(ctx, TranslateRequest{Content: "Hello", SourceLanguage: "en", TargetLanguage: "xx"})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.Translate(ctx, TranslateRequest{Content: " ", TargetLanguage: "es"})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))

	res, err := svc.Translate(ctx, TranslateRequest{Content: "Use the REST API", SourceLanguage: "auto", TargetLanguage: "en"})
	require.NoError(t, err)
	assert.Equal(t, MethodIdentity, res.Method)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, []string{"API", "REST"}, res.TechnicalTermsPreserved)
}

func TestTranslateChainOrder(t *testing.T) {
	unconfigured := &fakeTranslator{name: "google"}
	failing := &fakeTranslator{name: "libretranslate", configured: true, err: errors.New("instance down")}
	working := &fakeTranslator{name: "mymemory", configured: true, out: "hola desde mymemory"}

	svc, _ := newTestService(t, nil, unconfigured, failing, working)

	res, err := svc.Translate(context.Background(), TranslateRequest{Content: "Hello", SourceLanguage: "en", TargetLanguage: "es"})
	require.NoError(t, err)
	assert.Equal(t, "hola desde mymemory", res.TranslatedContent)
	assert.Equal(t, "mymemory", res.Method)
	assert.Equal(t, 0.8, res.Confidence)
	assert.Equal(t, 0, unconfigured.calls)
	assert.Equal(t, 1, failing.calls)

	assert.Equal(t,
		[]string{MethodHuggingFace, "google", "libretranslate", "mymemory", MethodAIGeneration, MethodDictionary, MethodPassthrough},
		svc.Health()["translation_chain"],
	)
}

func TestTranslateWithModel(t *testing.T) {
	t.Run("opus-mt answers first", func(t *testing.T) {
		mock := llm.NewMockProvider()
		svc, _ := newTestService(t, llm.NewService(mock))

		res, err := svc.Translate(context.Background(), TranslateRequest{Content: "Hello", SourceLanguage: "en", TargetLanguage: "de"})
		require.NoError(t, err)
		assert.Equal(t, "[DE] Hello", res.TranslatedContent)
		assert.Equal(t, MethodHuggingFace, res.Method)
	})

	t.Run("generation is tried after translators", func(t *testing.T) {
		mock := llm.NewMockProvider()
		mock.SetResponse(llm.TaskTranslation, "")
		mock.SetResponse(llm.TaskGeneration, "Hallo Welt")
		svc, _ := newTestService(t, llm.NewService(mock), &fakeTranslator{name: "google"})

		res, err := svc.Translate(context.Background(), TranslateRequest{Content: "Hello World", SourceLanguage: "en", TargetLanguage: "de"})
		require.NoError(t, err)
		assert.Equal(t, "Hallo Welt", res.TranslatedContent)
		assert.Equal(t, MethodAIGeneration, res.Method)
	})
}

func TestTranslatePreservesCodeBlocks(t *testing.T) {
	svc, _ := newTestService(t, nil)
	content := "Hello\n```\nHello()\n```\n"

	res, err := svc.Translate(context.Background(), TranslateRequest{Content: content, SourceLanguage: "en", TargetLanguage: "es"})
	require.NoError(t, err)
	assert.Equal(t, "Hola\n```\nHello()\n```\n", res.TranslatedContent)
	assert.Equal(t, MethodDictionary, res.Method)

	off := false
	res, err = svc.Translate(context.Background(), TranslateRequest{
		Content: content, SourceLanguage: "en", TargetLanguage: "es", PreserveFormatting: &off, UseTranslationMemory: &off,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hola\n```\nHola()\n```\n", res.TranslatedContent)
}

func TestDetect(t *testing.T) {
	svc, _ := newTestService(t, nil)

	tests := []struct {
		content string
		want    string
	}{
		{"El servidor de la aplicación es rápido y fácil de usar para los usuarios", "es"},
		{"Le serveur est rapide et facile à utiliser pour les utilisateurs", "fr"},
		{"こんにちは、世界", "ja"},
		{"你好世界", "zh"},
		{"안녕하세요", "ko"},
		{"مرحبا بالعالم", "ar"},
		{"नमस्ते दुनिया", "hi"},
		{"The server is fast and easy to use", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			res := svc.Detect(tt.content)
			assert.Equal(t, tt.want, res.DetectedLanguage)
			assert.NotNil(t, res.AlternativeLanguages)
		})
	}
}

func TestLocalize(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	t.Run("spanish ui", func(t *testing.T) {
		res, err := svc.Localize(ctx, LocalizeRequest{
			Content:      "Click Install on 03/15/2024 for 1,234.5 items",
			TargetLocale: "es_MX",
			ContentType:  "ui",
		})
		require.NoError(t, err)
		assert.Equal(t, "es-mx", res.Locale)
		assert.Contains(t, res.LocalizedContent, "Instalar")
		assert.Contains(t, res.LocalizedContent, "15/03/2024")
		assert.Contains(t, res.LocalizedContent, "1.234,5")
		assert.Contains(t, res.CulturalAdaptations, "Date format")
		assert.Contains(t, res.CulturalAdaptations, "Number format")
	})

	t.Run("us english is untouched", func(t *testing.T) {
		res, err := svc.Localize(ctx, LocalizeRequest{Content: "Due 03/15/2024", TargetLocale: "en-US"})
		require.NoError(t, err)
		assert.Equal(t, "Due 03/15/2024", res.LocalizedContent)
		assert.Empty(t, res.CulturalAdaptations)
	})

	t.Run("no translation keeps source text", func(t *testing.T) {
		res, err := svc.Localize(ctx, LocalizeRequest{Content: "Quantum flux", TargetLocale: "ko"})
		require.NoError(t, err)
		assert.Equal(t, "Quantum flux", res.LocalizedContent)
		assert.Equal(t, MethodPassthrough, res.Method)
		assert.NotEmpty(t, res.CulturalNotes)
	})

	t.Run("unsupported locale", func(t *testing.T) {
		_, err := svc.Localize(ctx, LocalizeRequest{Content: "Hello", TargetLocale: "xx-YY"})
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})
}

func TestMemoryKey(t *testing.T) {
	key := MemoryKey("en", "es", "Hello")
	assert.Regexp(t, `^en_es_[0-9a-f]{16}$`, key)
	assert.Equal(t, key, MemoryKey("en", "es", "Hello"))
	assert.NotEqual(t, key, MemoryKey("en", "fr", "Hello"))
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	require.Len(t, langs, 10)

	ar, ok := LookupLanguage("ar")
	require.True(t, ok)
	assert.True(t, ar.RTL)
	assert.False(t, IsSupported("xx"))
}
