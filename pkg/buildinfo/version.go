// Package buildinfo reports which blueprints build is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/blueprints/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/blueprints/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/blueprints
//
// Without ldflags, Resolve falls back to the module version and VCS data the
// Go toolchain embeds (go install ...@version, or a build inside a checkout).
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	// Version is the release version, "dev" when unstamped.
	Version = "dev"

	// Commit is the VCS revision, "none" when unknown.
	Commit = "none"

	// Date is the build or commit time, "unknown" when unknown.
	Date = "unknown"
)

var resolveOnce sync.Once

// Resolve fills unstamped variables from the embedded build info. It is
// idempotent.
func Resolve() {
	resolveOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if ok {
			apply(info)
		}
	})
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "none" && s.Value != "" {
				Commit = s.Value
				if len(Commit) > 12 {
					Commit = Commit[:12]
				}
			}
		case "vcs.time":
			if Date == "unknown" && s.Value != "" {
				Date = s.Value
			}
		}
	}
}

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("blueprints %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template for cobra's --version flag.
func Template() string {
	return String() + "\n"
}
