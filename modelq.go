package modelq

var (
	VERSION = "dev"
	COMMIT  = "unknown"
)
