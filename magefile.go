//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

func Build() error {
	mg.Deps(BuildApplyCorrections)
	fmt.Println("Compilation finished")
	return nil
}

// The HDF5 bindings need cgo, CGO_CFLAGS and CGO_LDFLAGS point to libhdf5
func BuildApplyCorrections() error {
	fmt.Println("Building applyCorrections executable...")
	return goCommand("build", "-o", "./bin/applyCorrections", "./applyCorrections")
}

func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./...")
}

func goCommand(args ...string) error {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
