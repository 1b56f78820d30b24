// Package equipment loads weapon, armor and mount definitions and derives the
// combat stats the simulation uses from them.
package equipment

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// ErrInvalidAsset is wrapped by every validation failure so callers can tell
// malformed data apart from I/O errors.
var ErrInvalidAsset = errors.New("invalid equipment asset")

// AssetType classifies an equipment record.
type AssetType string

const (
	TypeRanged AssetType = "ranged"
	TypeMelee  AssetType = "melee"
	TypeArmor  AssetType = "armor"
	TypeMount  AssetType = "mount"
)

// FireMode is the trigger behaviour of a ranged weapon.
type FireMode string

const (
	FireSingle  FireMode = "single"
	FireBurst   FireMode = "burst"
	FireScatter FireMode = "scatter"
)

// Asset is one flat equipment record as it appears in the catalog file.
type Asset struct {
	Name       string    `yaml:"name"`
	Type       AssetType `yaml:"type"`
	Weight     float64   `yaml:"weight"`
	Protection float64   `yaml:"protection"`
	Length     float64   `yaml:"length"`
	Calibre    float64   `yaml:"calibre"`
	Magazine   int       `yaml:"magazine"`
	FireMode   FireMode  `yaml:"fire_mode"`
	Incendiary bool      `yaml:"incendiary"`
}

type catalogFile struct {
	Assets []Asset `yaml:"assets"`
}

// Catalog is the read-only set of equipment known to the simulation.
type Catalog struct {
	assets map[string]Asset
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading equipment catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded equipment catalog: %v", err))
	}
	return c
}

// Parse decodes YAML catalog data. The first malformed asset rejects the
// whole catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding equipment catalog: %w", err)
	}
	c := &Catalog{assets: make(map[string]Asset, len(f.Assets))}
	for i, a := range f.Assets {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("asset #%d: %w", i, err)
		}
		if _, dup := c.assets[a.Name]; dup {
			return nil, fmt.Errorf("asset #%d %q: duplicate name: %w", i, a.Name, ErrInvalidAsset)
		}
		c.assets[a.Name] = a
	}
	return c, nil
}

// Validate checks that every field the derived stats depend on is usable.
func (a Asset) Validate() error {
	bad := func(why string) error {
		return fmt.Errorf("%q: %s: %w", a.Name, why, ErrInvalidAsset)
	}
	if a.Name == "" {
		return bad("missing name")
	}
	if a.Weight <= 0 {
		return bad("weight must be positive")
	}
	switch a.Type {
	case TypeRanged:
		if a.Length <= 0 || a.Calibre <= 0 {
			return bad("ranged weapon needs length and calibre")
		}
		if a.Magazine <= 0 {
			return bad("ranged weapon needs a magazine")
		}
		switch a.FireMode {
		case FireSingle, FireBurst, FireScatter:
		default:
			return bad(fmt.Sprintf("unknown fire mode %q", a.FireMode))
		}
	case TypeMelee:
		if a.Length <= 0 {
			return bad("melee weapon needs length")
		}
	case TypeArmor:
		if a.Protection < 0 || a.Protection > 0.9 {
			return bad("protection outside [0, 0.9]")
		}
	case TypeMount:
	default:
		return bad(fmt.Sprintf("unknown type %q", a.Type))
	}
	return nil
}

// Get returns the named asset.
func (c *Catalog) Get(name string) (Asset, bool) {
	a, ok := c.assets[name]
	return a, ok
}

// Names lists asset names of the given type in sorted order. An empty type
// lists everything.
func (c *Catalog) Names(t AssetType) []string {
	var out []string
	for n, a := range c.assets {
		if t == "" || a.Type == t {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of assets.
func (c *Catalog) Len() int { return len(c.assets) }
