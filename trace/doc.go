// Package trace contains all the types provided for tracing within the
// redwire package. With tracing a user is able to pull out fine-grained
// runtime events as they happen, which is useful for gathering metrics,
// logging, performance analysis, etc...
//
// BIG LOUD DISCLAIMER DO NOT IGNORE THIS: while the main redwire package is
// stable and will always remain backwards compatible, trace is still under
// active development and may undergo changes to its types and other
// features. The methods in the main redwire package which invoke trace
// types are guaranteed to remain stable.
package trace
