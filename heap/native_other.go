//go:build !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !windows

package heap

const nativeBackend = BackendGuest
