// Package parameters handles generic configuration Params, a map[string]string that the
// user can set with a configuration string like "ab,max_depth=3,leaf=qtable".
package parameters

import (
	"slices"
	"strconv"
	"strings"

	"github.com/janpfeifer/qchess/internal/generics"
	"github.com/pkg/errors"
)

// Params represent generic configuration parameters.
type Params map[string]string

// NewFromConfigString create params from user's configuration string: a comma-separated list
// of keys with optional values ("key=value").
//
// See GetParamOr and PopParamOr to parse values from this map.
func NewFromConfigString(config string) Params {
	params := make(Params)
	for _, part := range strings.Split(config, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		subParts := strings.SplitN(part, "=", 2) // Split into up to 2 parts to handle '=' in values
		if len(subParts) == 1 {
			params[subParts[0]] = ""
		} else {
			params[subParts[0]] = subParts[1]
		}
	}
	return params
}

// Has returns whether the key is present, with or without a value.
func (params Params) Has(key string) bool {
	_, found := params[key]
	return found
}

// Keys returns the sorted keys of params.
func (params Params) Keys() []string {
	return slices.Collect(generics.SortedKeys(params))
}

// CheckAllUsed returns an error listing the keys still in params, if any. Used after all the
// known parameters have been popped.
func CheckAllUsed(params Params) error {
	if len(params) == 0 {
		return nil
	}
	return errors.Errorf("unknown parameters \"%s\" passed", strings.Join(params.Keys(), "\", \""))
}

// PopParamOr is like GetParamOr, but it also deletes from the params map the retrieved parameter.
func PopParamOr[T interface {
	bool | int | float32 | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}

// GetParamOr attempts to parse a parameter to the given type if the key is present, or returns the defaultValue
// if not.
//
// For bool types, a key without a value is interpreted as true.
func GetParamOr[T interface {
	bool | int | float32 | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	value, exists := params[key]
	if !exists {
		return defaultValue, nil
	}
	var t T
	toT := func(v any) T { return v.(T) }
	switch any(defaultValue).(type) {
	case string:
		return toT(value), nil
	case int:
		if value == "" {
			return defaultValue, nil
		}
		parsedValue, err := strconv.Atoi(value)
		if err != nil {
			return t, errors.Wrapf(err, "failed to parse configuration %s=%q to int", key, value)
		}
		return toT(parsedValue), nil
	case float32:
		if value == "" {
			return defaultValue, nil
		}
		parsedValue, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return t, errors.Wrapf(err, "failed to parse configuration %s=%q to float", key, value)
		}
		return toT(float32(parsedValue)), nil
	case float64:
		if value == "" {
			return defaultValue, nil
		}
		parsedValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return t, errors.Wrapf(err, "failed to parse configuration %s=%q to float", key, value)
		}
		return toT(parsedValue), nil
	case bool:
		switch strings.ToLower(value) {
		case "", "true", "1": // Empty value is considered "true"
			return toT(true), nil
		case "false", "0":
			return toT(false), nil
		}
		return defaultValue, errors.Errorf("failed to parse configuration %s=%q to bool", key, value)
	}
	return defaultValue, nil
}
