// Package plan wraps a validated unit graph with the mutable per-unit
// status of a live planning session: which units are ready to build, which
// are being built, and which have finished or failed.
//
// # Lifecycle
//
// Each unit starts in the status its kind implies (pre-existing units are
// already terminal; configured units are pending) and moves monotonically:
//
//	Configured -> Processing -> Installed | Failed
//
// Installed and Failed are terminal. Nothing ever re-enters Configured or
// Processing, and a pre-existing unit never transitions at all.
//
// # Failure cascade
//
// When a processing unit is marked failed, every unit that transitively
// depends on it and is still configured or processing also moves to failed,
// carrying a dependency failure that names the root cause. A driver is
// therefore never offered a unit whose dependency has failed.
//
// # Concurrency
//
// A single mutex guards the status map. Computing the ready set, claiming
// units into Processing and applying a failure cascade each happen under
// one lock acquisition, so no two callers can claim the same unit and no
// reader ever observes a cascade half done. The graph structure itself is
// immutable and shared without locking.
package plan
