// Package project loads and rewrites editor project files.
//
// Loading builds a graph of producers, chains, playlists, and tractors for
// the proxy walker. Rewriting streams a document back out with proxied
// producers pointed at their original resources, which is how a project that
// edits against proxies is saved for delivery. The two paths are deliberately
// separate: loading wants typed access to the handful of elements proxying
// cares about, while rewriting must preserve every element and attribute it
// does not understand.
package project
