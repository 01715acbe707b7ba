package trailcache

import "testing"

func TestBaseLang(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"ne", "ne"},
		{"ne_NP", "ne"},
		{"ne-NP", "ne"},
		{"EN-us", "en"},
		{" hi ", "hi"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := BaseLang(tt.code); got != tt.expected {
				t.Errorf("BaseLang(%q) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"ne", "Nepali"},
		{"ne_NP", "Nepali"},
		{"bo-CN", "Tibetan"},
		{"unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetLanguageName(tt.code)
			if result != tt.expected {
				t.Errorf("GetLanguageName(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestGetDirection(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"ar_SA", "rtl"},
		{"he", "rtl"},
		{"ur-PK", "rtl"},
		{"ne_NP", "ltr"},
		{"hi", "ltr"},
		{"en", "ltr"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetDirection(tt.code)
			if result != tt.expected {
				t.Errorf("GetDirection(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestIsRTL(t *testing.T) {
	if !IsRTL("fa") {
		t.Error("IsRTL(fa) should be true")
	}
	if IsRTL("ne") {
		t.Error("IsRTL(ne) should be false")
	}
}

func TestLocaleConversions(t *testing.T) {
	if got := NormalizeLocale("ne-NP"); got != "ne_NP" {
		t.Errorf("NormalizeLocale = %q", got)
	}
	if got := ToHTMLLang("ne_NP"); got != "ne-NP" {
		t.Errorf("ToHTMLLang = %q", got)
	}
}
