package version

const (
	// Name identifies the service in logs and traces.
	Name = "taskhub-api"

	// Version is overridden at build time via -ldflags.
	Version = "dev"
)
