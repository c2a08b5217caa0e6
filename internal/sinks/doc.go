// Package sinks contains the built-in export destinations and their
// registration with the sink registry. Each subpackage implements the
// driven.Sink contract for one destination kind.
package sinks
