package app

import "golang.org/x/sys/unix"

// Rebooter is the indirection point for Net_Reboot's actual syscall, so
// tests can stub a slow "reboot" and observe that the Ok reply already
// reached the client (see REBOOT_ACK_ORDER in SPEC_FULL.md).
type Rebooter interface {
	Reboot() error
}

// systemRebooter syncs the filesystems and issues the real Linux reboot(2)
// syscall through golang.org/x/sys/unix.
type systemRebooter struct{}

func (systemRebooter) Reboot() error {
	unix.Sync()
	return unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART)
}
