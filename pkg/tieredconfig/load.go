// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package tieredconfig

import (
	"github.com/spf13/viper"

	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

const (
	// Key is the configuration key holding the table policies.
	Key = "tiered-storage"
	// TypesKey is the configuration key holding type definitions.
	TypesKey = "types"
)

// Load reads and validates the tiered storage configuration from a yaml, json
// or toml file.
func Load(path string) (Config, error) {
	vip, err := read(path)
	if err != nil {
		return Config{}, err
	}
	return FromViper(vip)
}

// FromViper decodes and validates the tiered storage configuration.
func FromViper(vip *viper.Viper) (Config, error) {
	var config Config
	if err := vip.UnmarshalKey(Key, &config); err != nil {
		return Config{}, Error.Wrap(err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// PropertyConfig declares one fixed property.
type PropertyConfig struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

// IndexConfig declares a secondary index.
type IndexConfig struct {
	Property string `mapstructure:"property"`
	Unique   bool   `mapstructure:"unique"`
}

// TypeConfig declares a record type.
type TypeConfig struct {
	Name       string           `mapstructure:"name"`
	ID         string           `mapstructure:"id"`
	AutoID     bool             `mapstructure:"auto-id"`
	Properties []PropertyConfig `mapstructure:"properties"`
	Indexes    []IndexConfig    `mapstructure:"indexes"`
}

// Descriptor builds the type descriptor.
func (tc TypeConfig) Descriptor() (*typedesc.TypeDescriptor, error) {
	props := make([]typedesc.Property, 0, len(tc.Properties))
	for _, p := range tc.Properties {
		pt, err := typedesc.ParsePropertyType(p.Type)
		if err != nil {
			return nil, Error.New("type %q property %q: %v", tc.Name, p.Name, err)
		}
		props = append(props, typedesc.Property{Name: p.Name, Type: pt})
	}
	indexes := make([]typedesc.Index, 0, len(tc.Indexes))
	for _, index := range tc.Indexes {
		indexes = append(indexes, typedesc.Index{Property: index.Property, Unique: index.Unique})
	}

	var td *typedesc.TypeDescriptor
	var err error
	if tc.AutoID {
		td, err = typedesc.NewAutoID(tc.Name, tc.ID, props, indexes...)
	} else {
		td, err = typedesc.New(tc.Name, tc.ID, props, indexes...)
	}
	return td, Error.Wrap(err)
}

// LoadTypes reads the type definitions from a configuration file.
func LoadTypes(path string) (*typedesc.Registry, error) {
	vip, err := read(path)
	if err != nil {
		return nil, err
	}
	return TypesFromViper(vip)
}

// TypesFromViper decodes the type definitions into a registry.
func TypesFromViper(vip *viper.Viper) (*typedesc.Registry, error) {
	var types []TypeConfig
	if err := vip.UnmarshalKey(TypesKey, &types); err != nil {
		return nil, Error.Wrap(err)
	}
	registry := typedesc.NewRegistry()
	for _, tc := range types {
		td, err := tc.Descriptor()
		if err != nil {
			return nil, err
		}
		if err := registry.Register(td); err != nil {
			return nil, Error.Wrap(err)
		}
	}
	return registry, nil
}

func read(path string) (*viper.Viper, error) {
	vip := viper.New()
	vip.SetConfigFile(path)
	if err := vip.ReadInConfig(); err != nil {
		return nil, Error.Wrap(err)
	}
	return vip, nil
}
