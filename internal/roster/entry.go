package roster

import "strings"

// LooksLikeID reports whether s reads as an employee ID: only ASCII letters,
// digits, '-' and '_', with at least one digit.
func LooksLikeID(s string) bool {
	digit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
		default:
			return false
		}
	}
	return digit
}

// ParseEntry splits a roster cell written as "Name, ID" or "ID, Name". Both
// the ASCII and the full-width comma separate. A cell that does not split into
// exactly two parts is a bare name or a bare ID.
func ParseEntry(value string) (name, id string) {
	s := strings.TrimSpace(value)
	if s == "" {
		return "", ""
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' })
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 1:
		if LooksLikeID(parts[0]) {
			return "", parts[0]
		}
		return parts[0], ""
	case 2:
		if LooksLikeID(parts[0]) && !LooksLikeID(parts[1]) {
			return parts[1], parts[0]
		}
		return parts[0], parts[1]
	default:
		return s, ""
	}
}
