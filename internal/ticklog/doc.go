// Package ticklog reads encoder tick logs.
//
// A log is a text file of whitespace-separated integer triples
// "timestamp left right", one sample per line. A blank line or the end of
// input terminates the stream. Streams are exposed as Source values: lazy,
// ordered and not restartable, returning io.EOF once exhausted.
package ticklog
