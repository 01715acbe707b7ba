package trailcache

import "strings"

// LanguageNames maps base language codes to human-readable names.
// Providers that take free-form prompts use them; the cache key always
// uses the code itself.
var LanguageNames = map[string]string{
	"en": "English",
	"ne": "Nepali",
	"hi": "Hindi",
	"bo": "Tibetan",
	"dz": "Dzongkha",
	"ur": "Urdu",
	"bn": "Bengali",
	"si": "Sinhala",
	"zh": "Chinese (Simplified)",
	"ja": "Japanese",
	"ko": "Korean",
	"th": "Thai",
	"vi": "Vietnamese",
	"id": "Indonesian",
	"ms": "Malay",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"pl": "Polish",
	"ru": "Russian",
	"tr": "Turkish",
	"ar": "Arabic",
	"he": "Hebrew",
	"fa": "Persian",
	"sw": "Swahili",
	"qu": "Quechua",
}

// BaseLang extracts the lowercase base language code
// (e.g., "ne" from "ne_NP" or "ne-NP").
func BaseLang(code string) string {
	code = NormalizeLocale(strings.TrimSpace(code))
	base, _, _ := strings.Cut(code, "_")
	return strings.ToLower(base)
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(code string) string {
	if name, ok := LanguageNames[BaseLang(code)]; ok {
		return name
	}
	return code
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(code string) string {
	if RTLLanguages[BaseLang(code)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(code string) bool {
	return GetDirection(code) == "rtl"
}

// NormalizeLocale converts a language code to the underscore form (e.g., "ne-NP" → "ne_NP").
func NormalizeLocale(code string) string {
	return strings.ReplaceAll(code, "-", "_")
}

// ToHTMLLang converts a locale code to HTML lang attribute format (e.g., "ne_NP" → "ne-NP").
func ToHTMLLang(code string) string {
	return strings.ReplaceAll(code, "_", "-")
}
