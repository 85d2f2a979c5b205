// Package version holds build metadata, set with -ldflags at build time:
//
//	go build -ldflags "-X github.com/cfoust/broadside/pkg/version.Version=v0.1.0"
package version

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
