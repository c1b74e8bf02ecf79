// Package clock lets code take the current time as a dependency.
package clock
