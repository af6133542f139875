// Package version holds the build version and commit, set via ldflags:
//
//	-ldflags "-X github.com/menezmethod/memoria/internal/version.Version=1.2.0"
package version

// Version is the semantic version of the build.
var Version = "dev"

// Commit is the git commit hash of the build.
var Commit = ""
