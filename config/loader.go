package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads a declarative configuration document from path (TOML by
// default; viper's format sniffing from the extension applies) and parses
// it into a Node tree.
func Load(path string) (*Node, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return parseNode(v.AllSettings())
}

// parseNode decodes one table of the document into a Node, recursing into
// container/front/back/decorator fields.
func parseNode(raw map[string]interface{}) (*Node, error) {
	id, ok := raw["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: table missing string id", ErrMissingField)
	}

	// Both spellings of a tag are accepted: "Array" and "ArrayConfig".
	n := &Node{ID: strings.TrimSuffix(id, "Config")}

	if cap, present := raw["capacity"]; present {
		v, err := toUint64(cap)
		if err != nil {
			return nil, fmt.Errorf("%w: capacity: %w", ErrInvalidFieldType, err)
		}

		n.Capacity = v
	}

	if fn, present := raw["filename"]; present {
		s, ok := fn.(string)
		if !ok {
			return nil, fmt.Errorf("%w: filename must be a string", ErrInvalidFieldType)
		}

		n.Filename = s
	}

	if name, present := raw["name"]; present {
		s, ok := name.(string)
		if !ok {
			return nil, fmt.Errorf("%w: name must be a string", ErrInvalidFieldType)
		}

		n.Name = s
	}

	if output, present := raw["output"]; present {
		s, ok := output.(string)
		if !ok {
			return nil, fmt.Errorf("%w: output must be a string", ErrInvalidFieldType)
		}

		n.Output = s
	}

	if front, present := raw["front"]; present {
		fm, ok := front.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: front must be a table", ErrInvalidFieldType)
		}

		fn, err := parseNode(fm)
		if err != nil {
			return nil, err
		}

		n.Front = fn
	}

	if back, present := raw["back"]; present {
		bm, ok := back.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: back must be a table", ErrInvalidFieldType)
		}

		bn, err := parseNode(bm)
		if err != nil {
			return nil, err
		}

		n.Back = bn
	}

	if decorator, present := raw["decorator"]; present {
		pf, err := parsePolicyField(decorator)
		if err != nil {
			return nil, err
		}

		n.Decorator = pf
	}

	if policy, present := raw["policy"]; present {
		pf, err := parsePolicyField(policy)
		if err != nil {
			return nil, err
		}

		n.Policy = pf
	}

	if container, present := raw["container"]; present {
		switch c := container.(type) {
		case map[string]interface{}:
			cn, err := parseNode(c)
			if err != nil {
				return nil, err
			}

			n.Container = cn
		case []interface{}:
			for _, item := range c {
				cm, ok := item.(map[string]interface{})
				if !ok {
					return nil, fmt.Errorf("%w: container list entries must be tables", ErrInvalidFieldType)
				}

				cn, err := parseNode(cm)
				if err != nil {
					return nil, err
				}

				n.ContainerList = append(n.ContainerList, cn)
			}
		default:
			return nil, fmt.Errorf("%w: container must be a table or list of tables", ErrInvalidFieldType)
		}
	}

	return n, nil
}

func parsePolicyField(raw interface{}) (*PolicyField, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: decorator/policy must be a table", ErrInvalidFieldType)
	}

	kind, ok := m["kind"].(string)
	if !ok || kind == "" {
		return nil, fmt.Errorf("%w: decorator/policy.kind", ErrMissingField)
	}

	pf := &PolicyField{Kind: kind}

	if exp, present := m["exponent"]; present {
		f, err := toFloat64(exp)
		if err != nil {
			return nil, fmt.Errorf("%w: exponent: %w", ErrInvalidFieldType, err)
		}

		pf.Exponent = f
	}

	return pf, nil
}

func toUint64(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case int:
		return uint64(n), nil
	case int64:
		return uint64(n), nil
	case float64:
		return uint64(n), nil
	case uint64:
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
