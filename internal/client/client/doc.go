// Package client talks to the auth and marketing servers on behalf of an
// account.
//
// # Overview
//
// The package provides:
//  1. The Client and MarketingClient contracts used by the account layer:
//     sign-in, sign-up, session and verification status, password change and
//     reset, account existence checks, and attached device and app
//     management.
//  2. GRPCClient, which implements both contracts over a gRPC connection
//     using structpb.Struct messages, carries the session token as outgoing
//     metadata and maps gRPC status codes to sentinel errors.
//
// # Error Handling
//
// Auth failures map to the sentinels in package common (ErrInvalidToken,
// ErrIncorrectPassword, ErrUnknownAccount, ...). Transport failures map to
// ErrUnavailable. Anything else is wrapped as "rpc error: ...".
package client
