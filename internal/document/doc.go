// Package document defines the canonical, order-preserving model that every
// input format parses into and every output format serializes from. A
// Document is an ordered list of named blocks; block bodies and nested
// mappings keep their keys in insertion order, because block and option
// order carries meaning for the rest of the compiler.
package document
