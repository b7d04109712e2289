//go:build illumos || solaris

package kernel

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// illumosDevice is the DTrace helper device on illumos/Solaris.
const illumosDevice = "/dev/dtrace/helper"

// illumosAddDOFIoctl is the DTRACEHIOC_ADDDOF request code: the ioctl that
// hands a DOF blob to the running kernel's DTrace helper provider.
const illumosAddDOFIoctl = 0x64746803

// modNameLen matches DTRACE_MODNAMELEN: the fixed-width module name field
// every dof_helper_t carries.
const modNameLen = 64

// dofHelper mirrors illumos's dof_helper_t: a module name, the DOF blob's
// load address, and a pointer to the blob itself.
type dofHelper struct {
	modname [modNameLen]byte
	addr    uint64
	dof     uint64
}

func registerDOF(data []byte) error {
	f, err := os.OpenFile(illumosDevice, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("kernel: open %s: %w", illumosDevice, err)
	}
	defer f.Close()

	var helper dofHelper
	helper.modname[0] = 'a'
	helper.addr = uint64(uintptr(unsafe.Pointer(&data[0])))
	helper.dof = helper.addr

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), uintptr(illumosAddDOFIoctl), uintptr(unsafe.Pointer(&helper)))
	if errno != 0 {
		return fmt.Errorf("kernel: ioctl DTRACEHIOC_ADDDOF: %w", errno)
	}
	return nil
}
