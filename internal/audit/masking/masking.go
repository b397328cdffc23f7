// Package masking keeps customer contact details out of the audit trail.
package masking

import "strings"

const (
	maskToken = "****"
	redacted  = "[redacted]"
)

type rule func(string) string

// rules are matched against the key suffix, so "customer_whatsapp" is
// masked the same way as "whatsapp".
var rules = []struct {
	suffix string
	apply  rule
}{
	{"whatsapp", MaskPhone},
	{"phone", MaskPhone},
	{"address", func(string) string { return redacted }},
}

// MaskPhone redacts a phone number while keeping the last four digits.
func MaskPhone(value string) string {
	trimmed := strings.TrimSpace(value)
	switch {
	case trimmed == "":
		return ""
	case len(trimmed) <= 4:
		return maskToken
	default:
		return maskToken + trimmed[len(trimmed)-4:]
	}
}

// MaskJSON returns a masked copy of input. Blank keys are dropped and an
// empty result is nil.
func MaskJSON(input map[string]any) map[string]any {
	masked := make(map[string]any, len(input))
	for key, value := range input {
		key = strings.TrimSpace(key)
		if key != "" {
			masked[key] = maskValue(ruleFor(key), value)
		}
	}
	if len(masked) == 0 {
		return nil
	}
	return masked
}

func ruleFor(key string) rule {
	key = strings.ToLower(key)
	for _, r := range rules {
		if strings.HasSuffix(key, r.suffix) {
			return r.apply
		}
	}
	return nil
}

func maskValue(apply rule, value any) any {
	switch v := value.(type) {
	case string:
		if apply != nil {
			return apply(v)
		}
		return v
	case map[string]any:
		return MaskJSON(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = maskValue(apply, item)
		}
		return out
	default:
		return value
	}
}
