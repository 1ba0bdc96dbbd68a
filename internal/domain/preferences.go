package domain

// Preferences are per-user display settings.
type Preferences struct {
	DarkMode bool
}
