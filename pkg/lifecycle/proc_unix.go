//go:build !windows

package lifecycle

import "syscall"

// detachedAttr puts the child in its own session so it outlives the hub
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
