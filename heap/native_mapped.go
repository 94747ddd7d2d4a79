//go:build darwin || dragonfly || freebsd || netbsd || openbsd || (linux && !amd64 && !arm64)

package heap

const nativeBackend = BackendMapped
