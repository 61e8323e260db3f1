package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NormalizeID canonicalizes the user-id representations seen across the REST
// and socket payloads: a bare string, or an object carrying "_id" and/or "id".
// The result is trimmed and lowercased so ids from different sources compare
// equal. Nil input yields "". Idempotent.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(id))
	case map[string]any:
		if inner, ok := id["_id"]; ok && inner != nil {
			return NormalizeID(inner)
		}
		if inner, ok := id["id"]; ok && inner != nil {
			return NormalizeID(inner)
		}
		return ""
	default:
		return strings.ToLower(strings.TrimSpace(stringify(v)))
	}
}

// SameID reports whether two id-like values name the same user.
func SameID(a, b any) bool {
	na := NormalizeID(a)
	return na != "" && na == NormalizeID(b)
}

// stringify coerces a JSON scalar to its string form. Numbers are formatted
// without a trailing ".0" since backends emit numeric ids inconsistently.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
