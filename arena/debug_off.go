//go:build !memkit_debug

package arena

const debugChecks = false
