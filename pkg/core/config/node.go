package config

import (
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Node is a single key of a collectd config block along with its values,
// e.g. `AuthURL "http://keystone:5000/v3"`.
type Node struct {
	Key    string
	Values []string
}

// Value returns the first value of the node, or "" if it has none
func (n Node) Value() string {
	if len(n.Values) == 0 {
		return ""
	}
	return n.Values[0]
}

// Block is the collectd-style config block of a plugin.  It is written in
// YAML as an ordered mapping where a scalar becomes a single value, a list
// becomes multiple values and null becomes a node with no values.  Values
// keep the text as written, so `Yes` stays `Yes` and `0123` stays `0123`,
// and ${ENV} references in them are expanded.
type Block []Node

// UnmarshalYAML decodes the block twice: once to get the key order and
// check value shapes, then again to get the untyped text of each value.
func (b *Block) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ordered yaml.MapSlice
	if err := unmarshal(&ordered); err != nil {
		return err
	}
	for _, item := range ordered {
		key, ok := item.Key.(string)
		if !ok {
			return errors.Errorf("config key %v is not a string", item.Key)
		}
		if err := checkShape(item.Value); err != nil {
			return errors.Wrapf(err, "config key %s", key)
		}
	}

	var raw map[string]rawValues
	if err := unmarshal(&raw); err != nil {
		return err
	}

	nodes := make(Block, 0, len(ordered))
	for _, item := range ordered {
		key := item.Key.(string)
		node := Node{Key: key}
		for _, v := range raw[key] {
			node.Values = append(node.Values, expandEnv(v))
		}
		nodes = append(nodes, node)
	}
	*b = nodes
	return nil
}

func checkShape(v interface{}) error {
	switch s := v.(type) {
	case nil:
		return nil
	case []interface{}:
		for i := range s {
			if !isScalar(s[i]) {
				return errors.Errorf("list item %v (%T) must be a scalar", s[i], s[i])
			}
		}
		return nil
	default:
		if !isScalar(v) {
			return errors.Errorf("value %v (%T) must be a scalar", v, v)
		}
		return nil
	}
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case nil, string, int, int64, uint64, float64, bool:
		return true
	}
	return false
}

// rawValues gets the scalar text of a value instead of its YAML 1.1
// resolution, since yaml.v2 hands string targets the original text.
type rawValues []string

func (r *rawValues) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var shape interface{}
	if err := unmarshal(&shape); err != nil {
		return err
	}

	switch shape.(type) {
	case nil:
		*r = nil
	case []interface{}:
		var list []string
		if err := unmarshal(&list); err != nil {
			return err
		}
		*r = list
	default:
		var s string
		if err := unmarshal(&s); err != nil {
			return err
		}
		*r = rawValues{s}
	}
	return nil
}
