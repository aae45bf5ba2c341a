package translation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"
)

// MemoryEntry is a cached translation.
type MemoryEntry struct {
	Key            string    `json:"key"`
	SourceText     string    `json:"source_text"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	TranslatedText string    `json:"translated_text"`
	Context        string    `json:"context,omitempty"`
	Method         string    `json:"method"`
	Confidence     float64   `json:"confidence"`
	CreatedAt      time.Time `json:"created_at"`
	UsageCount     int       `json:"usage_count"`
}

// MemoryKey identifies a translation of content between two languages.
func MemoryKey(source, target, content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%s_%s_%s", source, target, hex.EncodeToString(sum[:])[:16])
}

// Memory is an unbounded in-process translation cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*MemoryEntry
}

// NewMemory creates an empty translation memory.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*MemoryEntry)}
}

// Lookup returns a copy of the entry for key and counts the use.
func (m *Memory) Lookup(key string) (MemoryEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return MemoryEntry{}, false
	}
	e.UsageCount++
	return *e, true
}

// Store saves entry under its key. An existing entry keeps its usage count.
func (m *Memory) Store(entry MemoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.entries[entry.Key]; ok {
		entry.UsageCount = prev.UsageCount
	}
	if entry.UsageCount == 0 {
		entry.UsageCount = 1
	}
	m.entries[entry.Key] = &entry
}

// Len returns the number of cached translations.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// MostUsed is one row of the usage ranking.
type MostUsed struct {
	SourceText string `json:"source_text"`
	UsageCount int    `json:"usage_count"`
	Languages  string `json:"languages"`
}

// MemoryStats summarizes the translation memory.
type MemoryStats struct {
	TotalEntries  int            `json:"total_entries"`
	LanguagePairs map[string]int `json:"languages"`
	MostUsed      []MostUsed     `json:"most_used"`
}

// Stats counts entries per language pair and ranks the ten most used.
func (m *Memory) Stats() MemoryStats {
	m.mu.RLock()
	entries := make([]MemoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, *e)
	}
	m.mu.RUnlock()

	stats := MemoryStats{
		TotalEntries:  len(entries),
		LanguagePairs: make(map[string]int),
		MostUsed:      []MostUsed{},
	}
	for _, e := range entries {
		stats.LanguagePairs[e.SourceLanguage+"-"+e.TargetLanguage]++
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UsageCount != entries[j].UsageCount {
			return entries[i].UsageCount > entries[j].UsageCount
		}
		return entries[i].Key < entries[j].Key
	})
	for i, e := range entries {
		if i == 10 {
			break
		}
		stats.MostUsed = append(stats.MostUsed, MostUsed{
			SourceText: preview(e.SourceText, 50),
			UsageCount: e.UsageCount,
			Languages:  e.SourceLanguage + " → " + e.TargetLanguage,
		})
	}
	return stats
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
