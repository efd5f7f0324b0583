// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cartograph

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/cartograph/pkg/discovery"
)

// Options controls one IndexProject/IndexWorkspace run, matching spec §6's
// `options = { threads?, max_file_bytes?, languages?, hard_cancel? }`.
// Zero values select the same defaults the teacher's IngestionConfig uses:
// hardware parallelism, a 4 MiB file cap, every supported language.
type Options struct {
	// Threads is W, the CPU worker pool size handed to the scheduler.
	// Zero selects runtime.NumCPU().
	Threads int `yaml:"threads"`

	// MaxFileBytes caps a candidate source file's size. Zero selects
	// discovery.DefaultMaxFileBytes.
	MaxFileBytes int64 `yaml:"max_file_bytes"`

	// Languages restricts indexing to this set of language identifiers.
	// Nil selects every language langsupport ships an extractor for.
	Languages []string `yaml:"languages"`

	// HardCancel changes cancellation behavior: when true, a project whose
	// context is cancelled after the graph builder (C) completes but before
	// export (E) aborts without committing, leaving no database.kz for that
	// project. When false (the default), a project already past C is
	// allowed to finish so its commit stays atomic.
	HardCancel bool `yaml:"hard_cancel"`
}

// DefaultOptions returns the zero-value Options, which already selects every
// documented default; it exists so callers can start from a named value the
// way the teacher's ingestion config does (`DefaultConfig()`).
func DefaultOptions() Options {
	return Options{}
}

// LoadOptionsFile reads YAML-tagged Options from path, the mechanism behind
// a project's `.cartograph.yaml` configuration file.
func LoadOptionsFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// discoveryOptions converts Options into the discovery package's own
// Options shape, defaulting Languages to every extractor langsupport
// registers when the caller left it nil, so discovery's extension
// allow-list never admits a language the parse stage cannot extract.
func (o Options) discoveryOptions(supportedLanguages []string) discovery.Options {
	langs := o.Languages
	if langs == nil {
		langs = supportedLanguages
	}
	set := make(map[string]bool, len(langs))
	for _, l := range langs {
		set[l] = true
	}
	return discovery.Options{
		MaxFileBytes: o.MaxFileBytes,
		Languages:    set,
	}
}
