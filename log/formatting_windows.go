package log

// Colors are not supported on the windows console.
func (s Severity) color() string {
	return ""
}

func endColor() string {
	return ""
}
