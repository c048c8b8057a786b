// Package jobs runs external transcode processes on a worker pool and
// journals their outcomes in SQLite.
//
// A Job carries the argument list for one tool invocation plus an optional
// Action that finalizes the output after a clean exit. The Queue owns the
// workers; Runners supplied per Kind own process execution and progress
// parsing. The Store records start and finish events so past runs can be
// inspected after the fact.
//
// The journal is a disposable history, not coordination state: nothing reads
// it to decide what to run. Schema changes bump schemaVersion in store.go;
// users clear the database to adopt the new schema.
package jobs
