// Package policy decides what a caller may do with an owned, optionally public resource.
package policy

import "github.com/sumanskitchen/kitchen-go/internal/model"

// Decision is the outcome of an ownership check.
type Decision int

const (
	// Deny means the resource is invisible to the caller.
	Deny Decision = iota
	// AllowRead means the caller may view but not modify the resource.
	AllowRead
	// AllowWrite means the caller owns the resource. It implies AllowRead.
	AllowWrite
)

func (d Decision) String() string {
	switch d {
	case AllowRead:
		return "allow-read"
	case AllowWrite:
		return "allow-write"
	default:
		return "deny"
	}
}

// Decide applies the ownership rule: owners may read and write, anyone may read
// public resources, and anonymous callers (nil) never write.
func Decide(owner model.ID, public bool, caller *model.ID) Decision {
	if caller != nil && !caller.IsZero() && *caller == owner {
		return AllowWrite
	}
	if public {
		return AllowRead
	}
	return Deny
}

// CanRead reports whether d permits viewing.
func (d Decision) CanRead() bool {
	return d >= AllowRead
}

// CanWrite reports whether d permits update, delete and image upload.
func (d Decision) CanWrite() bool {
	return d == AllowWrite
}
