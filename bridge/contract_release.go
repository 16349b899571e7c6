//go:build release

package bridge

const strictDefault = false
