package models

// Relier describes the service on whose behalf an account operation runs.
type Relier struct {
	Service    string
	Context    string
	ClientID   string
	RedirectTo string
	WantsKeys  bool
}
