package domain

// ThemeResponse is the theme sub-object of a UserResponse.
type ThemeResponse struct {
	ID       int64 `json:"id"`
	DarkMode bool  `json:"dark_mode"`
}

// UserResponse is the externally visible user profile.
// It is assembled per request and never cached as a whole.
type UserResponse struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	Description string        `json:"description"`
	Theme       ThemeResponse `json:"theme"`
	IconHash    string        `json:"icon_hash"`
}
