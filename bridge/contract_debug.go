//go:build !release

package bridge

// Contract violations stop the program unless built with -tags release.
const strictDefault = true
