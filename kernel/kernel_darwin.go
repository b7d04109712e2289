//go:build darwin

package kernel

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// darwinDevice is the DTrace helper device on macOS.
const darwinDevice = "/dev/dtracehelper"

// darwinAddDOFIoctl is the DTRACEHIOC_ADDDOF request code on macOS's
// Darwin-flavored DTrace implementation, distinct from illumos's.
const darwinAddDOFIoctl = 0x80086804

const modNameLen = 64

type dofHelper struct {
	modname [modNameLen]byte
	addr    uint64
	dof     uint64
}

// dofIoctlData mirrors macOS's dof_ioctl_data_t: a count followed by that
// many dof_helper_t entries. This port always hands over exactly one.
type dofIoctlData struct {
	count   uint64
	helpers [1]dofHelper
}

func registerDOF(data []byte) error {
	f, err := os.OpenFile(darwinDevice, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("kernel: open %s: %w", darwinDevice, err)
	}
	defer f.Close()

	var req dofIoctlData
	req.count = 1
	req.helpers[0].modname[0] = 'a'
	req.helpers[0].addr = uint64(uintptr(unsafe.Pointer(&data[0])))
	req.helpers[0].dof = req.helpers[0].addr

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), uintptr(darwinAddDOFIoctl), uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return fmt.Errorf("kernel: ioctl DTRACEHIOC_ADDDOF: %w", errno)
	}
	return nil
}
