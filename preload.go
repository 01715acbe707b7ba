package trailcache

import (
	"context"
	"log/slog"
)

// PreloadCommon seeds the vault with translations of phrases into toLang.
//
// Phrases are resolved one at a time to bound load on the provider.
// The walk runs once per target language per session: later calls are
// no-ops until ResetSession or ClearVault. When offline the walk is
// skipped but the language is still marked as done.
func (r *Resolver) PreloadCommon(ctx context.Context, phrases []string, toLang string) {
	r.mu.Lock()
	if r.preloaded[toLang] {
		r.mu.Unlock()
		return
	}
	r.preloaded[toLang] = true
	r.mu.Unlock()

	if !r.isOnline() {
		r.logger.InfoContext(ctx, "offline, skipping preload", slog.String("to", toLang))
		return
	}

	r.logger.InfoContext(ctx, "preloading phrases",
		slog.String("to", toLang), slog.Int("count", len(phrases)))

	for _, phrase := range phrases {
		if ctx.Err() != nil {
			return
		}
		_ = r.Translate(ctx, phrase, r.sourceLang, toLang)
	}
}

// IsPreloaded reports whether toLang has been preloaded this session.
func (r *Resolver) IsPreloaded(toLang string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preloaded[toLang]
}

// CommonPhrases is the built-in vocabulary of UI strings and essential
// trekking phrases seeded ahead of need.
var CommonPhrases = []string{
	// Navigation and app shell
	"Home",
	"Map",
	"Itinerary",
	"Weather",
	"Settings",
	"Language",
	"Save",
	"Cancel",
	"Back",
	"Search",
	"Loading...",
	"You are offline",
	"Showing saved content",
	"Try again",
	"Download for offline use",

	// Trail and safety
	"Trail",
	"Distance",
	"Elevation",
	"Altitude sickness",
	"Rest day",
	"Emergency",
	"Call for help",
	"Nearest shelter",
	"Police",
	"Hospital",
	"Pharmacy",
	"Drinking water",
	"Toilet",
	"Guesthouse",
	"Checkpoint",
	"Permit",

	// Phrases
	"Hello",
	"Thank you",
	"Please",
	"Yes",
	"No",
	"How much does this cost?",
	"Where is the trail?",
	"I need help",
	"I am lost",
	"Is the road open?",
	"How far is the next village?",
	"Can I stay here tonight?",
	"I need a doctor",
	"Good morning",
	"Good night",
}
