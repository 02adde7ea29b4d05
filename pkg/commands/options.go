package commands

import (
	"fmt"
	"strconv"
	"strings"
)

// Options are the named parameters of a command invocation.
type Options map[string]any

// merge returns defaults overlaid with opts. Values from opts win.
func merge(defaults, opts Options) Options {
	out := make(Options, len(defaults)+len(opts))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range opts {
		out[k] = v
	}
	return out
}

// String returns the string value of key. A nil or missing value reports false.
func (o Options) String(key string) (string, bool) {
	s, ok := o[key].(string)
	return s, ok
}

// Bool returns the boolean value of key. Missing and non-boolean values are false.
func (o Options) Bool(key string) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Number returns key coerced to float64. It reports false when key is
// missing and an error when the value is not numeric.
func (o Options) Number(key string) (float64, bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	n, err := toFloat(v)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// Map returns the nested options under key.
func (o Options) Map(key string) (Options, bool) {
	switch v := o[key].(type) {
	case Options:
		return v, true
	case map[string]any:
		return Options(v), true
	}
	return nil, false
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("not a number: %v (%T)", v, v)
}
