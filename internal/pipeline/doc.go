// Package pipeline turns the ordered blocks of a parsed document into a
// dependency-ordered pipeline of typed stages. Resolution classifies each
// block against the stage-kind registry and threads the "current reference"
// that wires every stage to its predecessor; binding splits each block's
// options into constructor arguments, ordered wrapper calls, and result
// requests. Resolution is a pure, single-pass function of the document and
// the registry.
package pipeline
