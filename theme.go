package parley

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme. A negative index means no color.
type Theme struct {
	UserMsg   int // User message accent
	Assistant int // Assistant message accent
	Error     int // Error messages
	Success   int // Success indicators
	Muted     int // Status bar, placeholders
	Accent    int // Headings, links, focused fields
	NavBg     int // Navigation bar background
	UserBg    int // User message background
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:   4,
		Assistant: 6,
		Error:     1,
		Success:   2,
		Muted:     8,
		Accent:    5,
		NavBg:     0,
		UserBg:    -1,
	}
}
