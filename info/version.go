// Package info holds the version information of the program.
package info

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

var (
	name      = "objectbase"
	version   = "dev build"
	buildTime = "[build time unknown]"
	license   = "[license unknown]"

	info     *Info
	loadInfo sync.Once
)

// Info holds the programs meta information.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	License   string `json:"license"`
	BuildTime string `json:"buildTime"`

	Commit     string `json:"commit"`
	CommitTime string `json:"commitTime"`
	Dirty      bool   `json:"dirty"`
	GoVersion  string `json:"goVersion"`
}

// Set sets meta information via the main routine. Empty values keep the defaults.
func Set(setName, setVersion, setLicenseName string) {
	if setName != "" {
		name = setName
	}
	if setVersion != "" {
		version = setVersion
	}
	if setLicenseName != "" {
		license = setLicenseName
	}
}

// GetInfo returns all the meta information about the program.
func GetInfo() *Info {
	loadInfo.Do(func() {
		info = &Info{
			Name:       name,
			Version:    version,
			License:    license,
			BuildTime:  buildTime,
			Commit:     "[commit unknown]",
			CommitTime: "[commit time unknown]",
			GoVersion:  runtime.Version(),
		}

		buildInfo, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.Commit = setting.Value
			case "vcs.time":
				info.CommitTime = setting.Value
			case "vcs.modified":
				info.Dirty = setting.Value == "true"
			}
		}
	})

	return info
}

// Version returns the short version string.
func Version() string {
	info := GetInfo()

	if info.Dirty {
		return info.Version + "*"
	}
	return info.Version
}

// FullVersion returns the full and detailed version string.
func FullVersion() string {
	info := GetInfo()
	builder := new(strings.Builder)

	// Name and version.
	fmt.Fprintf(builder, "%s %s\n", info.Name, Version())

	// Build info.
	fmt.Fprintf(builder, "\nbuilt with %s (%s) %s/%s\n", info.GoVersion, runtime.Compiler, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(builder, "  at %s\n", info.BuildTime)

	// Commit info.
	fmt.Fprintf(builder, "\ncommit %s\n", info.Commit)
	fmt.Fprintf(builder, "  at %s\n", info.CommitTime)

	fmt.Fprintf(builder, "\nLicensed under the %s license.", info.License)

	return builder.String()
}
