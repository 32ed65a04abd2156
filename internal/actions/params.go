package actions

import (
	"fmt"
	"time"
)

func requireString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string, got %T", key, v)
	}
	if s == "" {
		return "", fmt.Errorf("parameter %q cannot be empty", key)
	}
	return s, nil
}

func optionalString(params map[string]any, key, fallback string) (string, error) {
	if _, ok := params[key]; !ok {
		return fallback, nil
	}
	return requireString(params, key)
}

func requireDuration(params map[string]any, key string) (time.Duration, error) {
	s, err := requireString(params, key)
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parameter %q cannot be negative", key)
	}
	return d, nil
}
