// Package misc keeps build time information about the program.
package misc

const appName = "bsmig"

// set by linker: -X bsmig/misc.version=... -X bsmig/misc.gitHash=...
var (
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
