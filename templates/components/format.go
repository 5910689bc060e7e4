package components

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// orDash renders missing metadata as "-".
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
