package llm

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"time"
)

// Defaults and bounds applied when parsing request settings.
const (
	DefaultTemperature = 0.7
	DefaultTopP        = 1.0
	DefaultMaxTokens   = 4000
	MinMaxTokens       = 1
	MaxMaxTokens       = 32000

	DefaultTimeout = 60 * time.Second

	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// Settings holds normalized generation parameters for one model binding.
type Settings struct {
	Temperature    float64
	TopP           float64
	MaxTokens      int
	SystemPrompt   string
	ResponseFormat json.RawMessage
	ChunkSize      int
	ChunkOverlap   int
}

// DefaultSettings returns Settings with every field at its default.
func DefaultSettings() Settings {
	return Settings{
		Temperature:  DefaultTemperature,
		TopP:         DefaultTopP,
		MaxTokens:    DefaultMaxTokens,
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
	}
}

// ParseSettings normalizes a loose settings map into Settings. Out-of-range
// values are clamped rather than rejected; unknown keys are ignored. The
// max-token budget arrives under the key "contextLength". The response
// format is kept as raw bytes; validity is checked later, at prompt time.
func ParseSettings(raw map[string]any) Settings {
	s := DefaultSettings()

	if v, ok := floatValue(raw["temperature"]); ok {
		s.Temperature = clampFloat(v, 0, 1)
	}
	if v, ok := floatValue(raw["topP"]); ok {
		s.TopP = clampFloat(v, 0, 1)
	}
	if v, ok := floatValue(raw["contextLength"]); ok {
		s.MaxTokens = clampInt(int(v), MinMaxTokens, MaxMaxTokens)
	}
	if v, ok := floatValue(raw["chunkSize"]); ok && int(v) > 0 {
		s.ChunkSize = int(v)
	}
	if v, ok := floatValue(raw["chunkOverlap"]); ok && int(v) >= 0 {
		s.ChunkOverlap = int(v)
	}
	if v, ok := raw["systemPrompt"].(string); ok {
		s.SystemPrompt = v
	}

	switch rf := raw["responseFormat"].(type) {
	case nil:
	case string:
		s.ResponseFormat = json.RawMessage(rf)
	default:
		if b, err := json.Marshal(rf); err == nil {
			s.ResponseFormat = b
		}
	}

	return s
}

// CacheKey derives the handle cache key for a (vendor, model, settings)
// triple. The settings map is hashed as an unordered set of pairs: two maps
// with the same entries produce the same key regardless of iteration order,
// and changing any single value produces a different key. Raw values are
// hashed before clamping, so out-of-range inputs that clamp to the same
// effective settings still key separately; they only cost a redundant
// handle, never a wrong one.
func CacheKey(vendor, model string, raw map[string]any) string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		v, _ := json.Marshal(raw[k])
		fmt.Fprintf(h, "%s=%s;", k, v)
	}
	return fmt.Sprintf("%s:%s:%x", vendor, model, h.Sum64())
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
