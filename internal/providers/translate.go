package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Default public endpoints.
const (
	GoogleTranslateEndpoint = "https://translation.googleapis.com/language/translate/v2"
	MyMemoryEndpoint        = "https://api.mymemory.translated.net/get"
)

// Translator is a single machine translation backend.
type Translator interface {
	Name() string
	Configured() bool
	Translate(ctx context.Context, text, source, target string) (string, error)
}

func usable(out, in string) (string, error) {
	out = strings.TrimSpace(out)
	if out == "" || out == strings.TrimSpace(in) {
		return "", ErrNoResult
	}
	return out, nil
}

// GoogleTranslate calls the Cloud Translation v2 API.
type GoogleTranslate struct {
	apiKey   string
	endpoint string
	client   *http.Client
	caller   *Caller
}

// NewGoogleTranslate creates a client. An empty apiKey leaves it unconfigured.
func NewGoogleTranslate(apiKey string, client *http.Client, caller *Caller) *GoogleTranslate {
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleTranslate{apiKey: apiKey, endpoint: GoogleTranslateEndpoint, client: client, caller: caller}
}

func (g *GoogleTranslate) Name() string     { return "google" }
func (g *GoogleTranslate) Configured() bool { return g.apiKey != "" }

// Translate translates text with Google.
func (g *GoogleTranslate) Translate(ctx context.Context, text, source, target string) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}
	q := url.Values{}
	q.Set("key", g.apiKey)
	q.Set("q", text)
	q.Set("source", source)
	q.Set("target", target)
	q.Set("format", "text")

	var out struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	err := g.caller.Do(ctx, g.Name(), func(ctx context.Context) error {
		return DoJSON(ctx, g.client, g.Name(), http.MethodPost, g.endpoint+"?"+q.Encode(), nil, nil, &out)
	})
	if err != nil {
		return "", err
	}
	if len(out.Data.Translations) == 0 {
		return "", ErrNoResult
	}
	return usable(out.Data.Translations[0].TranslatedText, text)
}

// LibreTranslate tries each configured instance in order.
type LibreTranslate struct {
	instances []string
	client    *http.Client
	caller    *Caller
}

// NewLibreTranslate creates a client over the given instance base URLs.
func NewLibreTranslate(instances []string, client *http.Client, caller *Caller) *LibreTranslate {
	if client == nil {
		client = http.DefaultClient
	}
	trimmed := make([]string, 0, len(instances))
	for _, i := range instances {
		if i = strings.TrimRight(strings.TrimSpace(i), "/"); i != "" {
			trimmed = append(trimmed, i)
		}
	}
	return &LibreTranslate{instances: trimmed, client: client, caller: caller}
}

func (l *LibreTranslate) Name() string     { return "libretranslate" }
func (l *LibreTranslate) Configured() bool { return len(l.instances) > 0 }

// Translate returns the first usable answer from any instance.
func (l *LibreTranslate) Translate(ctx context.Context, text, source, target string) (string, error) {
	if !l.Configured() {
		return "", ErrNotConfigured
	}
	body := map[string]string{"q": text, "source": source, "target": target, "format": "text"}

	lastErr := error(ErrNoResult)
	for _, instance := range l.instances {
		var out struct {
			TranslatedText string `json:"translatedText"`
		}
		err := l.caller.Do(ctx, l.Name(), func(ctx context.Context) error {
			return DoJSON(ctx, l.client, l.Name(), http.MethodPost, instance+"/translate", nil, body, &out)
		})
		if err != nil {
			lastErr = err
			continue
		}
		if res, err := usable(out.TranslatedText, text); err == nil {
			return res, nil
		}
	}
	return "", lastErr
}

// MyMemory calls the keyless MyMemory API when enabled.
type MyMemory struct {
	enabled  bool
	endpoint string
	client   *http.Client
	caller   *Caller
}

// NewMyMemory creates a client.
func NewMyMemory(enabled bool, client *http.Client, caller *Caller) *MyMemory {
	if client == nil {
		client = http.DefaultClient
	}
	return &MyMemory{enabled: enabled, endpoint: MyMemoryEndpoint, client: client, caller: caller}
}

func (m *MyMemory) Name() string     { return "mymemory" }
func (m *MyMemory) Configured() bool { return m.enabled }

// Translate translates text with MyMemory.
func (m *MyMemory) Translate(ctx context.Context, text, source, target string) (string, error) {
	if !m.Configured() {
		return "", ErrNotConfigured
	}
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", source+"|"+target)

	var out struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	err := m.caller.Do(ctx, m.Name(), func(ctx context.Context) error {
		return DoJSON(ctx, m.client, m.Name(), http.MethodGet, m.endpoint+"?"+q.Encode(), nil, nil, &out)
	})
	if err != nil {
		return "", err
	}
	return usable(out.ResponseData.TranslatedText, text)
}
