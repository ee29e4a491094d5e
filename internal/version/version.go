package version

import (
	"fmt"
	"runtime/debug"
)

const develVersion = "(devel)"

var (
	tag       = develVersion
	revision  string
	dirty     bool
	buildInfo string
)

// Version is the module version with the vcs revision and target platform.
func Version() string {
	v := tag
	if revision != "" {
		v += "+" + revision
	}
	if dirty {
		v += "-dirty"
	}
	return fmt.Sprintf("%s %s", v, buildInfo)
}

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	parse(info)
}

func parse(info *debug.BuildInfo) {
	if info.Main.Version != "" {
		tag = info.Main.Version
	}

	var goos, goarch string
	for _, s := range info.Settings {
		switch s.Key {
		case "GOOS":
			goos = s.Value
		case "GOARCH":
			goarch = s.Value
		case "vcs.revision":
			revision = s.Value
			if len(revision) > 12 {
				revision = revision[:12]
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	buildInfo = fmt.Sprintf("%s/%s", goos, goarch)
}
