// Package format parses and serializes the interchange formats (YAML, JSON,
// TOML, HCL) into and out of the canonical document model. Every adapter is
// lossless with respect to block order, key order, and scalar kinds, so that
// parse(serialize(doc)) is structurally equal to doc regardless of which
// format either side uses.
package format
