// Package driven defines the outbound ports of the export core: the
// interfaces that storage, cache, prompt, and destination adapters
// implement. The core depends only on these interfaces, never on
// concrete adapters.
package driven
