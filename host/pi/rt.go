//go:build linux

package pi

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Realtime locks the process in memory and raises its scheduling priority
// so impulse edges are timestamped without page-fault stalls. It needs
// CAP_IPC_LOCK and CAP_SYS_NICE; callers may treat errors as warnings.
func Realtime(nice int) error {
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		return fmt.Errorf("mlockall: %w", err)
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, nice); err != nil {
		return fmt.Errorf("setpriority: %w", err)
	}
	return nil
}
