//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const bin = "bin/propagate"

// Pipeline groups targets that run the propagate binary.
type Pipeline mg.Namespace

// Fetch downloads the default president's executive order PDFs.
func (Pipeline) Fetch() error {
	mg.Deps(Build, Init)
	return sh.RunV(bin, "fetch")
}

// Summarize summarizes orders that have no summary yet.
func (Pipeline) Summarize() error {
	mg.Deps(Build, Init)
	return sh.RunV(bin, "summarize")
}

// Publish rebuilds eo.json and the query index from the summaries.
func (Pipeline) Publish() error {
	mg.Deps(Build)
	if err := sh.RunV(bin, "build"); err != nil {
		return err
	}
	return sh.RunV(bin, "index")
}
