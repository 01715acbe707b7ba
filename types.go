package trailcache

// TranslationRecord is a durable translation held by the vault.
// Records are never mutated once written.
type TranslationRecord struct {
	CacheKey       string // FromLang + ToLang + OriginalText
	OriginalText   string // Source text exactly as requested
	TranslatedText string // Provider output
	FromLang       string // Source language code (e.g., "en")
	ToLang         string // Target language code (e.g., "ne")
	Timestamp      int64  // Creation time in epoch milliseconds
}

// NewTranslationRecord builds a record with its cache key filled in.
func NewTranslationRecord(text, translated, from, to string, timestampMs int64) TranslationRecord {
	return TranslationRecord{
		CacheKey:       CacheKey(from, to, text),
		OriginalText:   text,
		TranslatedText: translated,
		FromLang:       from,
		ToLang:         to,
		Timestamp:      timestampMs,
	}
}

// Stats is a snapshot of the Resolver's telemetry counters.
type Stats struct {
	Requests         uint64 // Every Translate call
	VolatileHits     uint64 // Served from the in-memory cache
	VaultHits        uint64 // Served from the persistent vault
	Misses           uint64 // Missed both local tiers
	ProviderCalls    uint64 // Network provider invocations
	ProviderFailures uint64 // Provider calls that fell back to the original text
	OfflineFallbacks uint64 // Misses answered with the original text while offline
	StoreFailures    uint64 // Vault reads or writes that failed
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}

// IgnoredTags contains HTML tags whose content should not be translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
}
