// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// WriteDiagnostics writes one project's diagnostics as newline-delimited
// JSON to path, per spec §6's diagnostics.jsonl format.
func WriteDiagnostics(path string, diagnostics []graphmodel.Diagnostic) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, d := range diagnostics {
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return bw.Flush()
}
