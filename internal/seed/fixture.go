package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

//go:embed fixture.yaml
var defaultFixture []byte

// Fixture lists the names the generator draws from.
type Fixture struct {
	Password     string            `yaml:"password"`
	Users        []string          `yaml:"users"`
	Restaurants  []string          `yaml:"restaurants"`
	Descriptions []string          `yaml:"descriptions"`
	Categories   []CategoryFixture `yaml:"categories"`
}

type CategoryFixture struct {
	Name     string   `yaml:"name"`
	MinPrice string   `yaml:"min_price"`
	MaxPrice string   `yaml:"max_price"`
	Dishes   []string `yaml:"dishes"`
}

// DefaultFixture returns the embedded fixture.
func DefaultFixture() (Fixture, error) {
	return ParseFixture(defaultFixture)
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(b []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if f.Password == "" {
		return Fixture{}, fmt.Errorf("fixture: password is required")
	}
	if len(f.Users) == 0 || len(f.Descriptions) == 0 {
		return Fixture{}, fmt.Errorf("fixture: users and descriptions must not be empty")
	}
	for _, c := range f.Categories {
		lo, err := api.ParseMoney(c.MinPrice)
		if err != nil {
			return Fixture{}, fmt.Errorf("fixture: category %s: %w", c.Name, err)
		}
		hi, err := api.ParseMoney(c.MaxPrice)
		if err != nil {
			return Fixture{}, fmt.Errorf("fixture: category %s: %w", c.Name, err)
		}
		if lo.Sign() <= 0 || hi.Cmp(lo) < 0 {
			return Fixture{}, fmt.Errorf("fixture: category %s: bad price range %s..%s", c.Name, lo, hi)
		}
	}
	return f, nil
}
