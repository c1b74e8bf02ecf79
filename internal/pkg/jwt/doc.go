// Package jwt issues and checks the signed credential handed out after a
// phone number has been verified. Tokens are HS512 with the phone number as
// subject.
package jwt
