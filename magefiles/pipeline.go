//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups targets that run trialscout stages with the local config.
type Pipeline mg.Namespace

func runStage(args ...string) error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// All runs every stage in order.
func (Pipeline) All() error { return runStage("run") }

// Collect searches GEO DataSets and writes the accession file.
func (Pipeline) Collect() error { return runStage("collect") }

// Links scrapes GEO accession pages for PubMed links.
func (Pipeline) Links() error { return runStage("links") }

// Clean derives numeric PubMed ids.
func (Pipeline) Clean() error { return runStage("clean") }

// Trials looks up NCT numbers on PubMed article pages.
func (Pipeline) Trials() error { return runStage("trials") }

// Filter keeps rows with a valid NCT number.
func (Pipeline) Filter() error { return runStage("filter") }

// History lists runs recorded in the ledger.
func (Pipeline) History() error { return runStage("history") }
