package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var errNoJSONObject = errors.New("response does not contain a json object")

// extractJSON strips markdown code fences and any prose around the outermost
// JSON object.
func extractJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
	}

	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
		return raw, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", errNoJSONObject
	}

	return raw[start : end+1], nil
}

func parseObject(raw string) (map[string]any, error) {
	cleaned, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if data == nil {
		return nil, errNoJSONObject
	}

	return data, nil
}

// decode maps data onto out using json field names. weak enables the string to
// number conversions needed for HTML form values.
func decode(data map[string]any, out any, weak bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: weak,
	})
	if err != nil {
		return err
	}

	return dec.Decode(data)
}
