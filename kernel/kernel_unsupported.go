//go:build !illumos && !solaris && !darwin

package kernel

import "github.com/tracewell/usdt/errs"

func registerDOF(data []byte) error {
	return errs.ErrUnsupportedPlatform
}
