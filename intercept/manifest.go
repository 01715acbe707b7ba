package intercept

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ZaguanLabs/trailcache"
)

// Manifest is the build-time description of what gets pre-cached.
type Manifest struct {
	Generation    string   `yaml:"generation"`
	Origin        string   `yaml:"origin"`
	ShellAssets   []string `yaml:"shell_assets"`
	ShellEntry    string   `yaml:"shell_entry"`
	FallbackImage string   `yaml:"fallback_image"`
	TileTemplate  string   `yaml:"tile_template"`
	TileHosts     []string `yaml:"tile_hosts"`
	Regions       []Region `yaml:"regions"`
}

// Region is a named area whose tiles are seeded at install.
type Region struct {
	Name  string `yaml:"name"`
	Tiles []Tile `yaml:"tiles"`
}

// Tile is a slippy-map tile coordinate.
type Tile struct {
	Z int `yaml:"z"`
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// DefaultManifest returns the built-in shell and tile allow-list.
func DefaultManifest() Manifest {
	return Manifest{
		Generation: trailcache.CacheGeneration,
		Origin:     "http://localhost:3000",
		ShellAssets: []string{
			"/",
			"/index.html",
			"/manifest.webmanifest",
			"/assets/app.js",
			"/assets/app.css",
			"/icons/icon-192.png",
			"/icons/offline.svg",
		},
		ShellEntry:    "/index.html",
		FallbackImage: "/icons/offline.svg",
		TileTemplate:  "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		TileHosts: []string{
			"tile.openstreetmap.org",
			"a.tile.opentopomap.org",
			"b.tile.opentopomap.org",
			"c.tile.opentopomap.org",
		},
		Regions: []Region{
			{Name: "Kathmandu", Tiles: []Tile{{Z: 10, X: 754, Y: 430}, {Z: 10, X: 755, Y: 430}}},
			{Name: "Annapurna", Tiles: []Tile{{Z: 10, X: 750, Y: 428}, {Z: 10, X: 751, Y: 428}}},
			{Name: "Khumbu", Tiles: []Tile{{Z: 10, X: 759, Y: 428}}},
		},
	}
}

// LoadManifest reads a YAML manifest. Unset fields keep their defaults.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes YAML over DefaultManifest.
func ParseManifest(data []byte) (Manifest, error) {
	m := DefaultManifest()
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks that the manifest can drive an install.
func (m Manifest) Validate() error {
	var errs []error
	if m.Generation == "" {
		errs = append(errs, errors.New("generation is required"))
	}
	if u, err := url.Parse(m.Origin); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("origin %q must be an absolute URL", m.Origin))
	}
	if m.ShellEntry == "" {
		errs = append(errs, errors.New("shell_entry is required"))
	}
	if len(m.Regions) > 0 && m.TileTemplate == "" {
		errs = append(errs, errors.New("tile_template is required when regions are listed"))
	}
	for _, r := range m.Regions {
		for _, t := range r.Tiles {
			if t.Z < 0 || t.X < 0 || t.Y < 0 || t.X >= 1<<t.Z || t.Y >= 1<<t.Z {
				errs = append(errs, fmt.Errorf("region %s: tile %d/%d/%d out of range", r.Name, t.Z, t.X, t.Y))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid manifest: %w", errors.Join(errs...))
	}
	return nil
}

// OriginURL returns the parsed origin.
func (m Manifest) OriginURL() (*url.URL, error) {
	return url.Parse(m.Origin)
}

// Resolve turns a manifest path into an absolute URL against the origin.
func (m Manifest) Resolve(ref string) (string, error) {
	origin, err := m.OriginURL()
	if err != nil {
		return "", err
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return origin.ResolveReference(u).String(), nil
}

// TileURL expands the tile template for one coordinate.
func (m Manifest) TileURL(t Tile) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(t.Z),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
	)
	return r.Replace(m.TileTemplate)
}

// TileURLs lists every region tile URL, without duplicates.
func (m Manifest) TileURLs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range m.Regions {
		for _, t := range r.Tiles {
			u := m.TileURL(t)
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
			}
		}
	}
	return out
}

// TileHostSet returns the allow-list as a lookup set. The template host is
// always included.
func (m Manifest) TileHostSet() map[string]bool {
	set := make(map[string]bool, len(m.TileHosts)+1)
	for _, h := range m.TileHosts {
		set[strings.ToLower(h)] = true
	}
	if u, err := url.Parse(strings.NewReplacer("{z}", "0", "{x}", "0", "{y}", "0").Replace(m.TileTemplate)); err == nil && u.Hostname() != "" {
		set[strings.ToLower(u.Hostname())] = true
	}
	return set
}
