package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAML entity definitions. Properties are a list, not a map, so column order
// is stable.
//
//	entities:
//	  - name: user
//	    table: users
//	    properties:
//	      - { name: id, kind: uuid, key: true }
//	      - { name: email, kind: string, unique: true }
//	      - { name: age, kind: int, nullable: true }
type yamlModel struct {
	Entities []yamlEntity `yaml:"entities"`
}

type yamlEntity struct {
	Name       string         `yaml:"name"`
	Table      string         `yaml:"table"`
	Properties []yamlProperty `yaml:"properties"`
}

type yamlProperty struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Column     string `yaml:"column"`
	Nullable   bool   `yaml:"nullable"`
	Key        bool   `yaml:"key"`
	Unique     bool   `yaml:"unique"`
	ColumnType string `yaml:"column_type"`
}

// ParseYAML builds a model from YAML entity definitions.
func ParseYAML(data []byte) (*Model, error) {
	var doc yamlModel
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("model: parse yaml: %w", err)
	}

	b := NewBuilder()
	for _, ye := range doc.Entities {
		eb := b.Entity(ye.Name)
		if ye.Table != "" {
			eb.Table(ye.Table)
		}
		for _, yp := range ye.Properties {
			pb := eb.Property(yp.Name, Kind(yp.Kind))
			if yp.Column != "" {
				pb.Column(yp.Column)
			}
			if yp.Nullable {
				pb.Nullable()
			}
			if yp.Key {
				pb.Key()
			}
			if yp.Unique {
				pb.Unique()
			}
			if yp.ColumnType != "" {
				pb.ColumnType(yp.ColumnType)
			}
		}
	}
	return b.Build()
}

// LoadYAML reads and parses a YAML model definition file.
func LoadYAML(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", path, err)
	}
	return ParseYAML(data)
}
