package geninfo

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Aliases canonicalizes the free-text fuel and technology labels found in
// generator list exports. Different vintages of the export spell the same
// fuel several ways ("Natural Gas Pipeline", "Gas", "NATURAL GAS"), which
// would otherwise split one fuel's capture price into several series.
type Aliases struct {
	Fuels        map[string]string `yaml:"fuels"`
	Technologies map[string]string `yaml:"technologies"`
}

// LoadAliases reads an alias mapping from a YAML file. Keys are matched
// case-insensitively.
func LoadAliases(path string) (*Aliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geninfo: read aliases %s", path)
	}

	var a Aliases
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, eris.Wrap(err, "geninfo: parse aliases")
	}

	a.Fuels = lowerKeys(a.Fuels)
	a.Technologies = lowerKeys(a.Technologies)
	return &a, nil
}

// Fuel returns the canonical name for a fuel label. Unmapped labels pass
// through trimmed.
func (a *Aliases) Fuel(label string) string {
	return a.lookup(a.Fuels, label)
}

// Technology returns the canonical name for a technology label.
func (a *Aliases) Technology(label string) string {
	return a.lookup(a.Technologies, label)
}

func (a *Aliases) lookup(m map[string]string, label string) string {
	label = strings.TrimSpace(label)
	if canon, ok := m[strings.ToLower(label)]; ok {
		return canon
	}
	return label
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
