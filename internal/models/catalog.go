package models

// Profile is the current user's profile as exposed to callers.
type Profile struct {
	DisplayName     string  `json:"display_name"`
	Email           string  `json:"email"`
	ProviderUserID  string  `json:"provider_user_id"`
	Country         string  `json:"country"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
	FollowerCount   int     `json:"follower_count"`
}

// Playlist is a playlist handle resolved by name lookup or creation.
//
// It is not cached between operations.
type Playlist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
