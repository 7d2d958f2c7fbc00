// Package unit defines the core data model of an install plan: the unit
// identifier, the unit itself, and the five-way status it moves through
// while a plan is being executed.
package unit

import (
	"fmt"
	"sort"
)

// ID is the opaque, globally unique identifier of a single buildable or
// installed component instance. IDs compare and sort by their string value.
type ID string

// PackageID is the human-readable name and version of the package a unit
// belongs to. It is informational only: distinct units may share a PackageID
// when they are different components of the same package.
type PackageID struct {
	Name    string
	Version string
}

// String renders a PackageID as "name-version", or just "name" when no
// version is known.
func (p PackageID) String() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "-" + p.Version
}

// Kind distinguishes the two construction-time variants of a unit.
type Kind int

const (
	// KindPreExisting marks a unit that is already installed. It requires no
	// action and its dependency edges are assumed already satisfied.
	KindPreExisting Kind = iota
	// KindConfigured marks a unit that is pending build.
	KindConfigured
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPreExisting:
		return "pre-existing"
	case KindConfigured:
		return "configured"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Unit is one node of an install plan. Units are immutable once handed to
// the graph builder; runtime progress is tracked separately by the plan
// state machine.
type Unit struct {
	// ID is the unique identifier of this unit.
	ID ID
	// Package names the package this unit belongs to.
	Package PackageID
	// Kind says whether the unit is already installed or still to be built.
	Kind Kind
	// Deps lists the UnitIDs this unit directly depends on.
	Deps []ID
	// Metadata carries optional, loader-supplied annotations. The engine
	// never inspects it; it only surfaces in diagnostic rendering.
	Metadata any
}

// InitialStatus returns the status a unit starts a planning session in.
func (u *Unit) InitialStatus() Status {
	if u.Kind == KindPreExisting {
		return StatusPreExisting
	}
	return StatusConfigured
}

// Status is the runtime state of a unit within a live plan.
//
// Statuses move monotonically: Configured -> Processing -> Installed or
// Failed. PreExisting, Installed and Failed are terminal.
type Status int

const (
	StatusPreExisting Status = iota
	StatusConfigured
	StatusProcessing
	StatusInstalled
	StatusFailed
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusPreExisting:
		return "pre-existing"
	case StatusConfigured:
		return "configured"
	case StatusProcessing:
		return "processing"
	case StatusInstalled:
		return "installed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether the status is final for the session.
func (s Status) Terminal() bool {
	switch s {
	case StatusPreExisting, StatusInstalled, StatusFailed:
		return true
	default:
		return false
	}
}

// Satisfied reports whether a dependency in this status counts as available
// for units that depend on it.
func (s Status) Satisfied() bool {
	return s == StatusPreExisting || s == StatusInstalled
}

// FailureKind classifies why a unit ended up failed.
type FailureKind int

const (
	// FailureBuild is a failure reported directly by the build of the unit.
	FailureBuild FailureKind = iota
	// FailureDependency is synthesized by the plan when a dependency of the
	// unit failed and the failure cascaded.
	FailureDependency
	// FailureCanceled records that the build was canceled by the caller.
	FailureCanceled
)

// String returns the lower-case name of the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureBuild:
		return "build"
	case FailureDependency:
		return "dependency"
	case FailureCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("failurekind(%d)", int(k))
	}
}

// Failure is the payload attached to a unit in StatusFailed. The wrapped
// error is opaque to the engine; CausedBy always names the unit whose build
// originally failed, so cascaded failures can be traced to their root cause.
type Failure struct {
	Kind     FailureKind
	CausedBy ID
	Err      error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	switch f.Kind {
	case FailureDependency:
		return fmt.Sprintf("dependency %q failed: %v", f.CausedBy, f.Err)
	case FailureCanceled:
		return fmt.Sprintf("build canceled: %v", f.Err)
	default:
		return fmt.Sprintf("build failed: %v", f.Err)
	}
}

// Unwrap exposes the underlying error to errors.Is / errors.As.
func (f *Failure) Unwrap() error { return f.Err }

// BuildFailure wraps an error reported by a unit's own build.
func BuildFailure(err error) *Failure {
	return &Failure{Kind: FailureBuild, Err: err}
}

// CancelFailure wraps a cancellation of an in-flight build. The plan treats
// it like any other failure, so cancellation cascades normally.
func CancelFailure(err error) *Failure {
	return &Failure{Kind: FailureCanceled, Err: err}
}

// DependencyFailure synthesizes the cascade payload for a unit whose
// transitive dependency rootCause failed.
func DependencyFailure(rootCause ID) *Failure {
	return &Failure{
		Kind:     FailureDependency,
		CausedBy: rootCause,
		Err:      fmt.Errorf("unit %q failed", rootCause),
	}
}

// InvalidTransitionError reports a violation of the plan's state machine
// contract, such as installing a unit that is not processing. It signals a
// defect in the driver, never a legitimate build failure.
type InvalidTransitionError struct {
	ID     ID
	From   Status
	Action string
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for unit %q: cannot %s from status %s", e.ID, e.Action, e.From)
}

// SortIDs sorts a slice of unit IDs in ascending order, in place, and
// returns it. Ordering by ID is the tie-breaker used everywhere the engine
// needs deterministic output.
func SortIDs(ids []ID) []ID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
