package trailcache

// Version information for trailcache.
// These values can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/trailcache.CacheGeneration=trailcache-v7"
const (
	// Name is the application name.
	Name = "trailcache"

	// Description is a short description of the application.
	Description = "Offline-first content delivery and translation caching"

	// Version is the semantic version of the application.
	Version = "0.3.0"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/trailcache"

	// License is the software license.
	License = "MIT"
)

// Build-time variables.
var (
	// CacheGeneration scopes cached resources to a deployment. Bumping it
	// is the only way to invalidate previously cached assets.
	CacheGeneration = "trailcache-v1"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// FullVersion returns the version string with optional build info.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns a user agent string for HTTP requests.
func UserAgent() string {
	return Name + "/" + Version
}
