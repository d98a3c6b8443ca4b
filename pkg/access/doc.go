// Package access implements the authorization decision core: the permission
// evaluator, the module access gate and link authorization between parties.
//
// All decisions are synchronous, pure computations over the rank catalog and
// a user snapshot. Denials are plain booleans, never errors; unresolved rank
// or capability references grant nothing. The only state the package carries
// is an in-memory decision cache and Prometheus counters, both optional.
package access
