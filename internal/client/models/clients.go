package models

import "time"

// ClientType distinguishes the kinds of clients attached to an account.
type ClientType string

const (
	ClientTypeDevice   ClientType = "device"
	ClientTypeOAuthApp ClientType = "oAuthApp"
)

// Device is a device registered against an account.
type Device struct {
	ID              string
	Name            string
	Type            string
	IsCurrentDevice bool
	LastAccessTime  time.Time
}

// OAuthApp is an OAuth application holding tokens for an account.
type OAuthApp struct {
	ID             string
	Name           string
	Scope          []string
	LastAccessTime time.Time
}

// AttachedClient is the common view over devices and OAuth apps.
type AttachedClient struct {
	ClientType      ClientType
	ID              string
	Name            string
	IsCurrentDevice bool
	LastAccessTime  time.Time
}

func (d Device) AsClient() AttachedClient {
	return AttachedClient{
		ClientType:      ClientTypeDevice,
		ID:              d.ID,
		Name:            d.Name,
		IsCurrentDevice: d.IsCurrentDevice,
		LastAccessTime:  d.LastAccessTime,
	}
}

func (a OAuthApp) AsClient() AttachedClient {
	return AttachedClient{
		ClientType:     ClientTypeOAuthApp,
		ID:             a.ID,
		Name:           a.Name,
		LastAccessTime: a.LastAccessTime,
	}
}

// Device returns the device described by c.
func (c AttachedClient) Device() Device {
	return Device{ID: c.ID, Name: c.Name, IsCurrentDevice: c.IsCurrentDevice, LastAccessTime: c.LastAccessTime}
}

// OAuthApp returns the OAuth app described by c.
func (c AttachedClient) OAuthApp() OAuthApp {
	return OAuthApp{ID: c.ID, Name: c.Name, LastAccessTime: c.LastAccessTime}
}
