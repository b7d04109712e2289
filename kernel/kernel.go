package kernel

import "github.com/tracewell/usdt/dof"

// Register serializes section and hands it to the host's DTrace helper
// device via the platform-specific ioctl request. On a platform with no
// known helper device it returns errs.ErrUnsupportedPlatform (see
// kernel_unsupported.go).
func Register(section dof.Section) error {
	return registerDOF(section.Serialize())
}
