package models

// Account attribute names.
const (
	KeyAccessToken                  = "accessToken"
	KeyCustomizeSync                = "customizeSync"
	KeyDeclinedSyncEngines          = "declinedSyncEngines"
	KeyDisplayName                  = "displayName"
	KeyEmail                        = "email"
	KeyGrantedPermissions           = "grantedPermissions"
	KeyHadProfileImageSetBefore     = "hadProfileImageSetBefore"
	KeyKeyFetchToken                = "keyFetchToken"
	KeyLastLogin                    = "lastLogin"
	KeyNeedsOptedInToMarketingEmail = "needsOptedInToMarketingEmail"
	KeyPermissions                  = "permissions"
	KeyProfileImageID               = "profileImageId"
	KeyProfileImageURL              = "profileImageUrl"
	KeyProfileImageURLDefault       = "profileImageUrlDefault"
	KeySessionToken                 = "sessionToken"
	KeySessionTokenContext          = "sessionTokenContext"
	KeyUID                          = "uid"
	KeyUnwrapBKey                   = "unwrapBKey"
	KeyVerificationMethod           = "verificationMethod"
	KeyVerificationReason           = "verificationReason"
	KeyVerified                     = "verified"
)

// PersistentKeys are the attributes written to local storage.
var PersistentKeys = []string{
	KeyAccessToken,
	KeyDisplayName,
	KeyEmail,
	KeyGrantedPermissions,
	KeyHadProfileImageSetBefore,
	KeyLastLogin,
	KeyPermissions,
	KeyProfileImageID,
	KeyProfileImageURL,
	KeyProfileImageURLDefault,
	KeySessionToken,
	KeySessionTokenContext,
	KeyUID,
	KeyVerified,
}

// AllowedKeys are the attributes an account may carry in memory.
var AllowedKeys = append([]string{
	KeyCustomizeSync,
	KeyDeclinedSyncEngines,
	KeyKeyFetchToken,
	KeyNeedsOptedInToMarketingEmail,
	KeyUnwrapBKey,
	KeyVerificationMethod,
	KeyVerificationReason,
}, PersistentKeys...)

var allowed = func() map[string]struct{} {
	m := make(map[string]struct{}, len(AllowedKeys))
	for _, k := range AllowedKeys {
		m[k] = struct{}{}
	}
	return m
}()

// IsAllowedKey reports whether key may be set on an account.
func IsAllowedKey(key string) bool {
	_, ok := allowed[key]
	return ok
}

// FilterAllowed returns the allow-listed subset of a.
func FilterAllowed(a Attributes) Attributes {
	return a.Pick(AllowedKeys...)
}

// SessionTokenUsedForSync is the session token context of accounts signed
// in from a browser's sync flow.
const SessionTokenUsedForSync = "fx_desktop_v1"
