package main

import (
	"syscall"
	"time"
)

func setSysTime(t time.Time) error {
	tv := syscall.NsecToTimeval(t.UnixNano())
	return syscall.Settimeofday(&tv)
}
