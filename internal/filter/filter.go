// Package filter turns key=value command-line arguments into record fields.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amishk599/resumeforge/internal/model"
)

// Parse converts arguments of the form key=value into Fields. Values that
// parse as numbers become float64 so they compare equal to stored numbers;
// wrap a value in double quotes to keep it a string ("42"). A key may appear
// only once.
func Parse(args []string) (model.Fields, error) {
	out := make(model.Fields, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=value", arg)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		out[key] = parseValue(raw)
	}
	return out, nil
}

func parseValue(raw string) any {
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		return raw[1 : len(raw)-1]
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
