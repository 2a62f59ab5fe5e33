// Package models defines the data shapes shared by the account store: raw
// account attribute maps, the ordered uid -> account mapping kept in local
// storage, and the devices and apps attached to an account.
package models
