//go:build linux

package workerpool

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinCurrentThread best-effort pins the calling OS thread to the
// given CPU index. Failures are ignored: pinning is an optimization,
// never a correctness requirement for the worker pool.
func pinCurrentThread(cpu int) {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu % runtime.NumCPU())
	_ = unix.SchedSetaffinity(0, &set)
}
