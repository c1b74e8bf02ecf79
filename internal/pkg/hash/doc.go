// Package hash provides helpers for hashing and verifying secrets.
//
// HMACSHA256 is keyed and used for short-lived OTP codes. Bcrypt is used for
// passwords.
package hash
