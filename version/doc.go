// Package version reports the build version of binaries using gopipe.
//
//	go build -ldflags "-X github.com/kbukum/gopipe/version.Version=1.4.0"
package version
