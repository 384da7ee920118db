package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"wikiconfig/internal/keypath"
	"wikiconfig/internal/store"
)

// parseAssignment splits PATH=VALUE. VALUE is read as a TOML value when it
// parses as one and kept as a plain string otherwise, so `true`, `25` and
// `["a","b"]` get their natural types while `/srv/wiki` stays text.
func parseAssignment(arg string) (store.Assignment, error) {
	raw, value, ok := strings.Cut(arg, "=")
	if !ok {
		return store.Assignment{}, fmt.Errorf("%q: expected PATH=VALUE", arg)
	}
	path, err := keypath.Parse(strings.TrimSpace(raw))
	if err != nil {
		return store.Assignment{}, err
	}
	return store.Assignment{Path: path, Value: parseValue(value)}, nil
}

func parseValue(raw string) any {
	var doc map[string]any
	if err := toml.Unmarshal([]byte("v = "+raw), &doc); err == nil {
		if v, ok := doc["v"]; ok {
			return store.Normalize(v)
		}
	}
	return raw
}

// plainValue converts store values for the encoders. Absent values become
// nil, or are dropped when dropAbsent is set.
func plainValue(value any, dropAbsent bool) any {
	switch v := value.(type) {
	case store.AbsentValue:
		return nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			if dropAbsent && store.IsAbsent(item) {
				continue
			}
			out[k] = plainValue(item, dropAbsent)
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			if dropAbsent && store.IsAbsent(item) {
				continue
			}
			out = append(out, plainValue(item, dropAbsent))
		}
		return out
	case time.Time:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return value
	}
}

// displayValue is the single-cell rendering used by tables and `get`.
func displayValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case store.AbsentValue:
		return "<absent>"
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case map[string]any, []any:
		data, err := json.Marshal(plainValue(v, false))
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
