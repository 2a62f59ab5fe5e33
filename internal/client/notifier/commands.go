package notifier

// Command names a notification.
type Command string

const (
	ChangePassword        Command = "fxaccounts:change_password"
	CompleteResetPassword Command = "fxaccounts:complete_reset_password"
	Delete                Command = "fxaccounts:delete"
	ProfileChange         Command = "profile:change"
	SignedIn              Command = "internal:signed_in"
	SignedOut             Command = "fxaccounts:logout"
)

// Commands lists every known command.
var Commands = []Command{
	ChangePassword,
	CompleteResetPassword,
	Delete,
	ProfileChange,
	SignedIn,
	SignedOut,
}

// Schemata declares the payload fields sent with a command. Commands
// without an entry carry their payload unchanged.
var Schemata = map[Command][]string{
	ChangePassword: {"email", "keyFetchToken", "sessionToken", "uid", "unwrapBKey", "verified"},
	Delete:         {"uid"},
	ProfileChange:  {"uid"},
	SignedIn:       {"keyFetchToken", "uid", "unwrapBKey"},
	SignedOut:      {"uid"},
}

// Known reports whether cmd is registered.
func Known(cmd Command) bool {
	for _, c := range Commands {
		if c == cmd {
			return true
		}
	}
	return false
}

// Payload is the data carried by a notification.
type Payload map[string]any

// Filter returns the part of p declared by cmd's schema.
func (p Payload) Filter(cmd Command) Payload {
	keys, ok := Schemata[cmd]
	if !ok {
		return p
	}
	out := make(Payload, len(keys))
	for _, k := range keys {
		if v, ok := p[k]; ok {
			out[k] = v
		}
	}
	return out
}
