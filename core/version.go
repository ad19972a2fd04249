package core

import (
	. "github.com/stevegt/goadapt"
	"github.com/stevegt/semver"
)

// version is the version of this code.  It follows semver.
const version = "1.1.0"

// CodeVersion returns the version of the hashtable code.
func CodeVersion() string {
	return version
}

// Satisfies returns true if the code version is at least required.
func Satisfies(required string) (ok bool, err error) {
	defer Return(&err)
	want, err := semver.Parse([]byte(required))
	Ck(err, "invalid version %q", required)
	have, err := semver.Parse([]byte(version))
	Ck(err)
	ok = semver.Cmp(have, want) >= 0
	return
}
