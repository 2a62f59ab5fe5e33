package common

// SessionTokenHeaderName is the gRPC metadata key used to carry the session
// token on outbound requests.
const SessionTokenHeaderName = "session_token"
