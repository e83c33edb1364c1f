package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"clnrmgo/internal/clnrmerr"
)

// LoadDocument decodes a rendered configuration file at path into a
// Document. Unlike internal/aliasing's optional pattern config in the
// teacher, this file is required: the run has nothing to do without
// it, so a missing or malformed file is always a ConfigError rather
// than a silent empty default.
func LoadDocument(path string) (*Document, error) {
	var doc Document

	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, &clnrmerr.ConfigError{Context: path, Err: fmt.Errorf("decode config: %w", err)}
	}

	if err := doc.validate(); err != nil {
		return nil, &clnrmerr.ConfigError{Context: path, Err: err}
	}

	return &doc, nil
}

func (d *Document) validate() error {
	if d.Meta.Name == "" {
		return fmt.Errorf("meta.name is required")
	}

	if len(d.Scenario) == 0 {
		return fmt.Errorf("at least one [[scenario]] is required")
	}

	for i, sc := range d.Scenario {
		if sc.Name == "" {
			return fmt.Errorf("scenario[%d]: name is required", i)
		}

		if len(sc.Steps) == 0 {
			return fmt.Errorf("scenario %q: at least one step is required", sc.Name)
		}

		for j, st := range sc.Steps {
			if len(st.Command) == 0 {
				return fmt.Errorf("scenario %q step[%d]: command is required", sc.Name, j)
			}
		}
	}

	for alias, sv := range d.Service {
		if sv.Plugin == "" {
			continue
		}

		switch sv.Plugin {
		case "generic_container", "database_container", "broker_container", "network_endpoint":
		default:
			return fmt.Errorf("service %q: unknown plugin %q", alias, sv.Plugin)
		}
	}

	return nil
}
