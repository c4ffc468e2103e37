package observability

// Build identification, stamped via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = ""
)
