// Package proxy implements the proxy media cache: deterministic naming of
// proxy files by content hash, the per-producer lifecycle that decides when a
// transcode is dispatched, the ffmpeg and melt argument builders, and the
// timeline traversal that applies the lifecycle to every clip in a project.
//
// Proxy files move through three states. A producer is Absent until a job is
// dispatched, Pending while a zero-byte marker (and later the encoder's
// output) sits at the pending path, and Proxied once the finished file is
// renamed into place. The pending marker doubles as the cross-process
// dispatch guard: it is created before the job is queued, renamed to the
// final name on success, and deleted when dispatch or the transcode fails.
package proxy
