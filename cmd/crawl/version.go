package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags. When built without
// ldflags (go install, go run) the values fall back to the module's
// embedded build info.
var (
	version = ""
	commit  = ""
	date    = ""
)

// getVersion returns the release version.
// Priority: ldflags > debug.ReadBuildInfo > "(devel)"
func getVersion() string {
	if version != "" {
		return version
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok && buildInfo.Main.Version != "" {
		return buildInfo.Main.Version
	}
	return "(devel)"
}

// vcsSetting returns a VCS build setting, preferring the ldflags value.
func vcsSetting(ldflag, key string) string {
	if ldflag != "" {
		return ldflag
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == key {
				return setting.Value
			}
		}
	}
	return "unknown"
}

// getCommit returns the commit hash, shortened to seven characters.
func getCommit() string {
	c := vcsSetting(commit, "vcs.revision")
	if len(c) > 7 {
		return c[:7]
	}
	return c
}

// getDate returns the build date.
func getDate() string {
	return vcsSetting(date, "vcs.time")
}

// goToolchain returns the Go version the binary was built with.
func goToolchain() string {
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		return buildInfo.GoVersion
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of crawl.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crawl version %s (commit: %s, built: %s, %s)\n",
				getVersion(), getCommit(), getDate(), goToolchain())
		},
	}
}
