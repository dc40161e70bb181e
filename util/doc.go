// Package util provides small reflection and collection helpers shared by
// the gopipe packages.
//
// It includes function-name introspection used for step display names,
// nil detection for interface values, and generic slice helpers.
package util
