package catalog

import "strings"

// Normalize canonicalizes a free-text identifier into a stable lookup key.
// The input is lower-cased, every run of characters outside [a-z0-9] becomes a
// single underscore and leading/trailing underscores are dropped, so
// "Car - Petrol", "car_petrol" and "CAR PETROL" all map to "car_petrol".
// Normalize never fails; an empty input yields an empty key.
func Normalize(raw string) string {
	lowered := strings.ToLower(raw)

	var b strings.Builder
	b.Grow(len(lowered))

	pendingSeparator := false
	for i := 0; i < len(lowered); i++ {
		c := lowered[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingSeparator && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSeparator = false
			b.WriteByte(c)
			continue
		}
		pendingSeparator = true
	}

	return b.String()
}

// Key joins the parts with an underscore and normalizes the result.
func Key(parts ...string) string {
	return Normalize(strings.Join(parts, "_"))
}

// CountryCode canonicalizes an electricity country code.
func CountryCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
