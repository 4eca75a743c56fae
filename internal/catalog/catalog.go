// Package catalog holds the fixed set of purchasable wash plans: punch-card
// count tiers and month-based subscription tiers.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

// CountPlan is a punch-card tier: a name and the uses it grants.
type CountPlan struct {
	Name string `yaml:"name"`
	Uses int    `yaml:"uses"`
}

// SubscriptionPlan is a time-boxed tier: a name and its duration in months.
type SubscriptionPlan struct {
	Name   string `yaml:"name"`
	Months int    `yaml:"months"`
}

// Catalog is the full plan list offered at the counter.
type Catalog struct {
	CountPlans        []CountPlan        `yaml:"countPlans"`
	SubscriptionPlans []SubscriptionPlan `yaml:"subscriptionPlans"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return parse(defaultPlans)
}

// Load reads a catalog from a YAML file, falling back to the embedded
// default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(c.CountPlans) == 0 && len(c.SubscriptionPlans) == 0 {
		return nil, fmt.Errorf("catalog has no plans")
	}
	for _, p := range c.CountPlans {
		if p.Name == "" || p.Uses <= 0 {
			return nil, fmt.Errorf("invalid count plan %+v", p)
		}
	}
	for _, p := range c.SubscriptionPlans {
		if p.Name == "" || p.Months <= 0 {
			return nil, fmt.Errorf("invalid subscription plan %+v", p)
		}
	}
	return &c, nil
}

// FindCount looks up a count tier by name.
func (c *Catalog) FindCount(name string) (CountPlan, bool) {
	for _, p := range c.CountPlans {
		if p.Name == name {
			return p, true
		}
	}
	return CountPlan{}, false
}

// FindSubscription looks up a subscription tier by name.
func (c *Catalog) FindSubscription(name string) (SubscriptionPlan, bool) {
	for _, p := range c.SubscriptionPlans {
		if p.Name == name {
			return p, true
		}
	}
	return SubscriptionPlan{}, false
}
