// Package mail sends plain-text operator notifications over SMTP.
package mail
