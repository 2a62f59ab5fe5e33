// Package cli provides the accounts command-line client.
//
// Each invocation loads configuration, opens the shared SQLite database and
// builds the account store (user.User) on top of it. Subcommands map onto
// store operations: signing in and out, switching between stored accounts,
// verification, password changes and attached-client management.
//
// Several CLI processes may share one database. Identity changes made by one
// are broadcast through the database's notification channel; "watch" prints
// them as they arrive.
package cli
