//go:build !opencv

package preprocess

// DefaultToolchain returns the advanced toolchain compiled into this build
func DefaultToolchain() Toolchain {
	return NewImagingToolchain()
}
