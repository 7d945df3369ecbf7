// Package registry holds the read-only vocabulary of stage kinds the
// compiler recognizes: environment builders, method families, solvent
// modifiers, properties, and the nested option keys that bind as
// post-construction wrapper calls. The registry is built once at startup
// and never mutated afterwards; stage resolution only reads it. Names
// absent from the registry are not an error; the resolver accepts them
// as passthrough method stages.
package registry
