package version

var (
	// Version is the SDK release, overridden by ldflags in release builds.
	Version = "v0.3.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// UserAgent is the default User-Agent of API clients.
func UserAgent() string {
	return "flowcatalyst-go/" + Version
}
