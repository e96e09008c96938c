// Package task provides routing configurations: named property sets selected by
// task id.
package task

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	xe "github.com/opst/tabserve/pkg/errors"
)

const (
	// name of task pool type, like "scoring".
	KeyType = "task.type"

	// target size of the task pool. Default is DefaultPoolSize.
	KeyPoolSize = "task.poolSize"

	// "true" for verbose logging of the task.
	KeyDebug = "task.debug"

	// name of the model artifact in the artifact store.
	KeyModelFile = "scorer.model.filename"

	// name of the data preparer. Default is "json".
	KeyPreparer = "scorer.data.preparer"

	// options for tabular conversion, like "nominal=a,b;string=c".
	KeyPreparerOptions = "scorer.data.preparer.options"

	// scoring variant forced, "classification" or "clustering".
	// By default, it is chosen by the capability of the model.
	KeyScorerImpl = "scorer.impl"
)

const DefaultPoolSize = 1

// Properties is a flat set of named configuration values.
type Properties map[string]string

// Resolver provides Properties for a task id.
type Resolver interface {
	// Resolve returns Properties for the task id.
	//
	// When no configuration is found for the id, it returns an error wrapping ErrUnknownTask.
	Resolve(ctx context.Context, taskId string) (Properties, error)
}

// Get returns the value of key, with surrounding spaces trimmed.
func (p Properties) Get(key string) string {
	return strings.TrimSpace(p[key])
}

func (p Properties) Type() string {
	return p.Get(KeyType)
}

func (p Properties) Debug() bool {
	b, err := strconv.ParseBool(p.Get(KeyDebug))
	return err == nil && b
}

// PoolSize returns the target size of the task pool.
//
// When it is not set, returns DefaultPoolSize.
// When it is not a positive integer, returns an error wrapping ErrConfiguration.
func (p Properties) PoolSize() (int, error) {
	s := p.Get(KeyPoolSize)
	if s == "" {
		return DefaultPoolSize, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, xe.Wrap(xe.ErrConfiguration, fmt.Sprintf(`%s "%s" is not an integer`, KeyPoolSize, s), err)
	}
	if n < 1 {
		return 0, xe.Wrapf(xe.ErrConfiguration, `%s should be positive, but %d`, KeyPoolSize, n)
	}
	return n, nil
}

func (p Properties) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb := new(strings.Builder)
	for _, k := range keys {
		fmt.Fprintf(sb, "%s=%s\n", k, p[k])
	}
	return sb.String()
}

// UnmarshalYAML reads nested mappings as dotted keys:
//
//	task:
//	  type: scoring
//	  poolSize: 2
//
// becomes {"task.type": "scoring", "task.poolSize": "2"}.
//
// Sequences of scalars are joined with ",".
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	out := Properties{}
	if err := flatten(out, "", node); err != nil {
		return err
	}
	*p = out
	return nil
}

func flatten(out Properties, prefix string, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, c := range node.Content {
			if err := flatten(out, prefix, c); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := flatten(out, key, node.Content[i+1]); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		values := make([]string, 0, len(node.Content))
		for _, c := range node.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: %s: sequence should have scalars only", c.Line, prefix)
			}
			values = append(values, c.Value)
		}
		out[prefix] = strings.Join(values, ",")
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		if prefix == "" {
			return fmt.Errorf("line %d: value without key", node.Line)
		}
		out[prefix] = node.Value
	case yaml.AliasNode:
		return flatten(out, prefix, node.Alias)
	}
	return nil
}
