// Package version exposes build metadata for the voxboard binaries.
//
// Values are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/voxboard/version.Version=1.2.0 \
//	  -X github.com/kbukum/voxboard/version.Commit=abc1234"
package version
