// Package bridge hands an emitted script to the external Python runtime
// and captures requested results back into the document model. It is the
// only blocking component of the compiler: the runner honors the caller's
// context, and results already captured when a run is cancelled or fails
// are preserved alongside the error.
package bridge
