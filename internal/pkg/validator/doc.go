// Package validator checks struct fields by tag and reports failures as a
// field to message map with snake_case field names. It adds the "phone" (E.164)
// and "password" tags to the go-playground rules.
package validator
