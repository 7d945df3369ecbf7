// Package app is the composition root: it wires the logger, the stage-kind
// registry, the compile pipeline, and the execution bridge into one
// application instance, and runs a full compilation from input text to
// serialized output.
package app
