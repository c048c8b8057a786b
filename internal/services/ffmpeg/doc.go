// Package ffmpeg runs the ffmpeg binary for video proxy jobs and translates
// its -progress stream into completion fractions.
//
// The runner merges the tool's log output with the progress stream on one
// pipe and keeps only a short tail of log lines, which becomes the error
// detail when a transcode fails. Tests swap the process launcher to avoid
// executing the real encoder.
package ffmpeg
