package inherit

import (
	"fmt"
	"strings"
)

// Policy selects which ancestor members a type exposes.
type Policy string

const (
	// PolicyNone exposes declared members only.
	PolicyNone Policy = "none"
	// PolicyAll merges members from every ancestor.
	PolicyAll Policy = "all"
	// PolicyNonObject merges members from ancestors below the root types.
	PolicyNonObject Policy = "nonobject"
)

// DefaultRoots are the ancestors PolicyNonObject stops at.
var DefaultRoots = []string{"System.Object", "System.ValueType", "System.Enum"}

// ParsePolicy parses a policy name, case-insensitively. "non-object" and
// "NonObject" are both accepted.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "") {
	case "none":
		return PolicyNone, nil
	case "all":
		return PolicyAll, nil
	case "nonobject":
		return PolicyNonObject, nil
	}
	return "", fmt.Errorf("unknown inheritance policy %q (want none, all or nonobject)", s)
}

// Merges reports whether the policy adds ancestor members.
func (p Policy) Merges() bool {
	return p == PolicyAll || p == PolicyNonObject
}
