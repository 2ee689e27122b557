package version

// Set at build time via -ldflags, e.g.
// go build -ldflags "-X github.com/lexavoss/gravitygate/internal/version.Version=v0.3.0"
var (
	Version = "dev"
	Commit  = "none"
)
