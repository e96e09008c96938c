package task

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"

	xe "github.com/opst/tabserve/pkg/errors"
)

// FileResolver reads Properties from files in Dir.
//
// For task id "iris", it looks for Dir/<Prefix>iris.yaml, .yml and .props, in order.
type FileResolver struct {
	Dir    string
	Prefix string
}

var _ Resolver = FileResolver{}

// DefaultPrefix of task configuration file names.
const DefaultPrefix = "tabserve_"

// DefaultConfigDir is "$HOME/config".
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config"
	}
	return filepath.Join(home, "config")
}

func (r FileResolver) Resolve(_ context.Context, taskId string) (Properties, error) {
	if taskId == "" || strings.ContainsAny(taskId, `/\`) || !filepath.IsLocal(taskId) {
		return nil, xe.Wrapf(xe.ErrUnknownTask, `"%s" is not a valid task id`, taskId)
	}

	for _, ext := range []string{".yaml", ".yml", ".props"} {
		path := filepath.Join(r.Dir, r.Prefix+taskId+ext)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, xe.Wrap(xe.ErrConfiguration, "cannot read "+path, err)
		}

		var props Properties
		var err error
		if ext == ".props" {
			props, err = LoadProps(path)
		} else {
			props, err = LoadYAML(path)
		}
		if err != nil {
			return nil, xe.Wrap(xe.ErrConfiguration, "cannot read "+path, err)
		}
		return props, nil
	}

	return nil, xe.Wrapf(xe.ErrUnknownTask, `no configuration for task "%s" in %s`, taskId, r.Dir)
}

// LoadYAML reads Properties from a YAML file.
func LoadYAML(path string) (Properties, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalYAML(content)
}

func UnmarshalYAML(content []byte) (Properties, error) {
	props := Properties{}
	if err := yaml.Unmarshal(content, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// LoadProps reads Properties from a Java-style properties file.
func LoadProps(path string) (Properties, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, err
	}
	props := Properties{}
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		props[k] = v
	}
	return props, nil
}
