// Package emit renders a resolved pipeline into the Python script that
// drives the simulation library. Emission is pure text generation: stage
// identifiers derive only from stage index and kind, so two structurally
// equal documents always emit byte-identical scripts.
package emit
