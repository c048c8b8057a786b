// Package textutil provides small text helpers for user-facing output:
// deriving a display title from a project file name and a generic conditional
// pick for rendering code.
package textutil
