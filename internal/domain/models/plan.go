package models

import (
	"gopkg.in/yaml.v3"
)

// FacetInit configures the facet's own initializer call. Calldata wins over
// Args; Args are encoded against the compiled facet's initialize method.
type FacetInit struct {
	Calldata string   `yaml:"calldata,omitempty" validate:"omitempty,hexadecimal"`
	Args     []string `yaml:"args,omitempty"`
}

// FacetSpec names one facet to add or upgrade.
type FacetSpec struct {
	Name          string     `yaml:"name" validate:"required"`
	SkipSelectors []string   `yaml:"skipSelectors,omitempty" validate:"dive,selector"`
	Init          *FacetInit `yaml:"init,omitempty"`
}

// FacetChanges lists facet additions, upgrades and removals.
type FacetChanges struct {
	Add     []FacetSpec `yaml:"add,omitempty" validate:"dive"`
	Upgrade []FacetSpec `yaml:"upgrade,omitempty" validate:"dive"`
	Remove  []string    `yaml:"remove,omitempty"`
}

// All returns add and upgrade specs in plan order.
func (c FacetChanges) All() []FacetSpec {
	return append(append([]FacetSpec{}, c.Add...), c.Upgrade...)
}

// IsEmpty reports whether nothing changes.
func (c FacetChanges) IsEmpty() bool {
	return len(c.Add) == 0 && len(c.Upgrade) == 0 && len(c.Remove) == 0
}

// Preimage selects facets whose selectors must be read from the predecessor
// revision before the target is checked out.
type Preimage struct {
	Revision string   `yaml:"revision" validate:"required"`
	Facets   []string `yaml:"facets" validate:"required,min=1"`
}

// Postconditions are routing facts checked after the cut.
type Postconditions struct {
	Absent  []string `yaml:"absent,omitempty" validate:"dive,selector"`
	Present []string `yaml:"present,omitempty" validate:"dive,selector"`
}

// IsEmpty reports whether no checks are configured.
func (p Postconditions) IsEmpty() bool {
	return len(p.Absent) == 0 && len(p.Present) == 0
}

// BackfillConfig bounds the batched data migration.
type BackfillConfig struct {
	BatchSize int `yaml:"batchSize,omitempty" validate:"omitempty,gt=0"`
}

// MigrationPlan is the YAML description of one protocol version upgrade.
type MigrationPlan struct {
	Version            string          `yaml:"version" validate:"required"`
	Requires           string          `yaml:"requires" validate:"required"`
	Revision           string          `yaml:"revision" validate:"required"`
	IsUpgrade          *bool           `yaml:"isUpgrade,omitempty"`
	Initializer        string          `yaml:"initializer" validate:"required"`
	Dependencies       bool            `yaml:"dependencies,omitempty"`
	Preimage           *Preimage       `yaml:"preimage,omitempty"`
	Pause              []string        `yaml:"pause,omitempty" validate:"dive,pauseregion"`
	Facets             FacetChanges    `yaml:"facets"`
	InitializationData yaml.Node       `yaml:"initializationData,omitempty"`
	Backfill           *BackfillConfig `yaml:"backfill,omitempty"`
	Postconditions     Postconditions  `yaml:"postconditions,omitempty"`

	// Path is the file the plan was loaded from
	Path string `yaml:"-"`
}

// Upgrade reports the isUpgrade flag, defaulting to true.
func (p *MigrationPlan) Upgrade() bool {
	return p.IsUpgrade == nil || *p.IsUpgrade
}

// HasInitializationData reports whether version-specific data was supplied.
func (p *MigrationPlan) HasInitializationData() bool {
	return p.InitializationData.Kind != 0
}

// UpgradeConfig is the YAML of a non-versioned facet upgrade.
type UpgradeConfig struct {
	Facets         FacetChanges   `yaml:"facets"`
	Initializer    string         `yaml:"initializer,omitempty"`
	Version        string         `yaml:"version,omitempty"`
	Postconditions Postconditions `yaml:"postconditions,omitempty"`

	Path string `yaml:"-"`
}
