// Package melt runs the melt binary for still image proxy jobs. Images are
// rendered through the framework itself so the proxy comes from the same
// plugin that loads the original.
package melt
