// Package trailcache provides offline-first translation caching and content
// delivery for applications used where connectivity comes and goes.
//
// The Resolver answers "translate this string from A to B" by walking a
// volatile in-memory cache, a persistent vault and finally a network
// translation provider, writing network results back through every tier.
// When the device is offline or the provider fails, the original text is
// returned so the UI always has something readable to show.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/ZaguanLabs/trailcache"
//	    "github.com/ZaguanLabs/trailcache/cache"
//	    "github.com/ZaguanLabs/trailcache/connectivity"
//	    "github.com/ZaguanLabs/trailcache/provider"
//	    "github.com/ZaguanLabs/trailcache/vault"
//	)
//
//	func main() {
//	    v, err := vault.NewSQLiteVault("/var/lib/trailcache/vault.db")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer v.Close()
//
//	    r := trailcache.NewResolver(provider.NewRESTProvider(provider.RESTConfig{}),
//	        trailcache.WithVault(v),
//	        trailcache.WithVolatileCache(cache.NewInMemoryCache()),
//	        trailcache.WithConnectivity(connectivity.New(true)),
//	    )
//
//	    fmt.Println(r.Translate(context.Background(), "Good morning", "en", "ne"))
//	}
//
// The companion intercept package applies cache-first and network-first
// policies to page shells, static assets and map tiles.
package trailcache
