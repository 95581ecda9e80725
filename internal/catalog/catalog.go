// internal/catalog/catalog.go
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
)

//go:embed data/*.json
var dataFS embed.FS

// ErrNotFound is returned when a lookup misses.
var ErrNotFound = errors.New("catalog: entity not found")

// StructureDef is the immutable definition of a buildable structure.
type StructureDef struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        int    `json:"price"`
	UpgradePrice int    `json:"upgradePrice"`
	UseType      string `json:"useType"`
}

// StatueDef is the immutable definition of a statue, including its ritual
// outcome texts and the weights used for the weighted random selection.
type StatueDef struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        int    `json:"price"`
	UpgradePrice int    `json:"upgradePrice"`

	Deal     string `json:"deal"`
	Blessing string `json:"blessing"`
	Curse    string `json:"curse"`

	DealWeight     int `json:"dealWeight"`
	BlessingWeight int `json:"blessingWeight"`
	CurseWeight    int `json:"curseWeight"`

	RitualCost   int `json:"ritualCost"`   // energy per ritual
	BlessingCost int `json:"blessingCost"` // energy to invoke the blessing directly
}

// ArtifactDef is the immutable definition of a findable artifact.
type ArtifactDef struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UseType     string `json:"useType"` // "player" or "field"
	Chance      int    `json:"chance"`  // find probability in percent
	Effect      string `json:"effect"`
}

// Catalog is the read-only lookup table of all entity definitions. It is
// loaded once at startup and shared across sessions without locking.
type Catalog struct {
	structures map[string]*StructureDef
	statues    map[string]*StatueDef
	artifacts  map[string]*ArtifactDef

	artifactList []*ArtifactDef // stable order for random scattering
}

// Load parses the embedded definition files into a Catalog.
func Load() (*Catalog, error) {
	c := &Catalog{
		structures: make(map[string]*StructureDef),
		statues:    make(map[string]*StatueDef),
		artifacts:  make(map[string]*ArtifactDef),
	}

	var structures []*StructureDef
	if err := loadFile("data/structures.json", &structures); err != nil {
		return nil, err
	}
	for _, s := range structures {
		c.structures[s.Name] = s
	}

	var statues []*StatueDef
	if err := loadFile("data/statues.json", &statues); err != nil {
		return nil, err
	}
	for _, s := range statues {
		c.statues[s.Name] = s
	}

	var artifacts []*ArtifactDef
	if err := loadFile("data/artifacts.json", &artifacts); err != nil {
		return nil, err
	}
	for _, a := range artifacts {
		c.artifacts[a.Name] = a
		c.artifactList = append(c.artifactList, a)
	}

	return c, nil
}

func loadFile(path string, out interface{}) error {
	data, err := dataFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return nil
}

// Structure looks up a structure definition by name.
func (c *Catalog) Structure(name string) (*StructureDef, error) {
	s, ok := c.structures[name]
	if !ok {
		return nil, fmt.Errorf("%w: structure %q", ErrNotFound, name)
	}
	return s, nil
}

// Statue looks up a statue definition by name.
func (c *Catalog) Statue(name string) (*StatueDef, error) {
	s, ok := c.statues[name]
	if !ok {
		return nil, fmt.Errorf("%w: statue %q", ErrNotFound, name)
	}
	return s, nil
}

// Artifact looks up an artifact definition by name.
func (c *Catalog) Artifact(name string) (*ArtifactDef, error) {
	a, ok := c.artifacts[name]
	if !ok {
		return nil, fmt.Errorf("%w: artifact %q", ErrNotFound, name)
	}
	return a, nil
}

// Artifacts returns all artifact definitions in file order.
func (c *Catalog) Artifacts() []*ArtifactDef {
	return c.artifactList
}
