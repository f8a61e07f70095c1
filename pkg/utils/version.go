// Package utils holds build metadata and small string helpers shared by the
// tapestream commands.
package utils

// Build metadata, stamped at release time with
// -ldflags "-X github.com/papercomputeco/tapestream/pkg/utils.Version=...".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
