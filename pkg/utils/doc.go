// Package utils holds the small HTTP helpers shared by the api packages:
// JSON error rendering keyed on pkg/errors codes and client address lookup.
package utils
