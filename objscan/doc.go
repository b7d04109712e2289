// Package objscan locates the probe-records linker section and any DOF
// sections within an ELF or Mach-O object file.
//
// It auto-detects the object file format the way a generic object-file
// reader does — try one stdlib parser, then the next — generalized from
// ELF-vs-other to ELF-vs-Mach-O, the two formats this scanner must
// understand.
package objscan
