// Package driving defines the inbound ports of the export core: the
// use-case interfaces consumed by the CLI and other entry points.
package driving
