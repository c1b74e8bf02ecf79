// Package sms sends text messages to E.164 phone numbers.
//
// SNS publishes directly to a phone number through AWS SNS. Log writes the
// message to the structured log and is meant for local runs only.
package sms
