//go:build memkit_debug

package arena

// debugChecks enables position validation in Reset.
const debugChecks = true
