//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Test runs the package tests.
func Test() error {
	cmd := exec.Command("go", "test", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Ensure builds the CLI and runs a corpus freshening pass for the query in
// the CORPUS_QUERY environment variable.
func Ensure() error {
	query := os.Getenv("CORPUS_QUERY")
	if query == "" {
		return fmt.Errorf("set CORPUS_QUERY to the query to freshen for")
	}
	if err := Build(); err != nil {
		return err
	}
	cmd := exec.Command(filepath.Join(binDir, binName), "ensure", query)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
