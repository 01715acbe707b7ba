// Package provider contains the network translation backends consulted by
// the Resolver on a local miss.
package provider

import "github.com/ZaguanLabs/trailcache"

// Provider is an alias to the root package interface for convenience.
type Provider = trailcache.Provider

// TranslateRequest is an alias to the root package type.
type TranslateRequest = trailcache.TranslateRequest
