// Package version reports how the binary was built. Tag is set with
// -ldflags "-X .../version.Tag=v1.2.3", the rest comes from the VCS stamp.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

var Tag string

type Info struct {
	Tag      string
	Revision string
	BuildAt  time.Time
	Dirty    bool
}

func Read() Info {
	info := Info{Tag: Tag}
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Tag == "" && buildInfo.Main.Version != "(devel)" {
		info.Tag = buildInfo.Main.Version
	}
	return info.withSettings(buildInfo.Settings)
}

func (i Info) withSettings(settings []debug.BuildSetting) Info {
	for _, setting := range settings {
		// https://pkg.go.dev/runtime/debug#BuildSetting
		switch setting.Key {
		case "vcs.revision":
			i.Revision = setting.Value
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				i.BuildAt = t
			}
		case "vcs.modified":
			i.Dirty = setting.Value == "true"
		}
	}
	return i
}

func (i Info) String() string {
	if i.Revision == "" {
		if i.Tag != "" {
			return "todo " + i.Tag
		}
		return "todo dev"
	}

	rev := i.Revision
	if len(rev) > 7 {
		rev = rev[:7]
	}
	s := fmt.Sprintf("todo %s %s", i.Tag, rev)
	if !i.BuildAt.IsZero() {
		s += " at " + i.BuildAt.UTC().Format("2006-01-02 15:04:05")
	}
	if i.Dirty {
		s += " dirty"
	}
	return s
}

func String() string {
	return Read().String()
}
