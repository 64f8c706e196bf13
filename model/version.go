package model

import (
	"fmt"
	"strconv"
	"strings"

	"oldap.evalgo.org/oldaperror"
)

// SemanticVersion is the major.minor.patch version stamped on data models
// (schema:version in SHACL, owl:versionInfo in OWL) and on every shape via
// dcterms:hasVersion. The two graph versions of a data model must agree.
type SemanticVersion struct {
	Major int
	Minor int
	Patch int
}

// InitialVersion is the version a freshly built entity starts at.
var InitialVersion = SemanticVersion{Major: 1, Minor: 0, Patch: 0}

// ParseSemanticVersion parses "major.minor.patch".
func ParseSemanticVersion(s string) (SemanticVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return SemanticVersion{}, oldaperror.New(oldaperror.Value, "invalid version %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return SemanticVersion{}, oldaperror.New(oldaperror.Value, "invalid version %q", s)
		}
		nums[i] = n
	}
	return SemanticVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ToRDF emits the version as a string literal.
func (v SemanticVersion) ToRDF() string {
	return `"` + v.String() + `"`
}
