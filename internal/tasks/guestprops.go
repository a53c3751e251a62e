package tasks

import (
	"reflect"
	"strings"
)

// extractFields reads named fields off a guest-data struct (disk, NIC,
// or process info) into a plain map, grounded on vsphere/tasks.py's
// repeated `{prop: getattr(x, prop, '(null)') for prop in properties}`
// comprehension. Property names arrive in the wire's lowerCamelCase
// convention; Go's generated govmomi types use UpperCamelCase, so the
// first letter is capitalized before the field lookup.
func extractFields(v any, properties []string) map[string]any {
	rv := reflect.ValueOf(v)
	out := make(map[string]any, len(properties))
	for _, p := range properties {
		fv := rv.FieldByName(exportedName(p))
		if !fv.IsValid() {
			out[p] = "(null)"
			continue
		}
		out[p] = fv.Interface()
	}
	return out
}

func exportedName(p string) string {
	if p == "" {
		return p
	}
	return strings.ToUpper(p[:1]) + p[1:]
}
