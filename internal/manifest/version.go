package manifest

import (
	"strconv"
	"strings"

	perrors "github.com/dosanma1/crxpack/internal/errors"
)

// maxComponent is the largest value a version component may take.
const maxComponent = 65535

// Version is a dotted numeric extension version of one to four components.
type Version []int

// ParseVersion parses s. Components must be decimal integers in 0..65535
// without leading zeros.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if s == "" || len(parts) > 4 {
		return nil, perrors.VersionInvalid(s)
	}

	v := make(Version, len(parts))
	for i, p := range parts {
		if p == "" || (len(p) > 1 && p[0] == '0') {
			return nil, perrors.VersionInvalid(s)
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return nil, perrors.VersionInvalid(s)
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > maxComponent {
			return nil, perrors.VersionInvalid(s)
		}
		v[i] = n
	}
	return v, nil
}

// Build returns the build number: the last component.
func (v Version) Build() int {
	return v[len(v)-1]
}

// Bump returns a copy with the build number incremented.
func (v Version) Bump() (Version, error) {
	if v.Build() >= maxComponent {
		return nil, perrors.New(perrors.CategoryConfig, "build number overflow").
			WithContext("version", v.String())
	}
	next := make(Version, len(v))
	copy(next, v)
	next[len(next)-1]++
	return next, nil
}

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
