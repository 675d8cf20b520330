// Package model defines the shared value types of the swego API.
package model
