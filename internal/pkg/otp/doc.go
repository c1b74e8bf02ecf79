// Package otp generates the numeric codes sent to a phone number.
//
// Random draws each code uniformly from crypto/rand. HOTP derives it with
// RFC 4226 from a fresh random key per code, for deployments that want the
// standard truncation. Neither keeps state that the caller must persist.
package otp
