// Package media models producers the way the editing framework exposes them:
// as bags of string properties hanging off a document graph. Objects are safe
// for concurrent use so background proxy jobs can flip resources while the
// rest of the program reads them.
package media
