//go:build windows

package heap

const nativeBackend = BackendVirtual
