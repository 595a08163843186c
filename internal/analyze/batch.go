// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analyze

import (
	"context"
	"log"

	"github.com/morganforge/studypal/internal/model"
)

// =============================================================================
// BATCH COORDINATOR
// =============================================================================

// Upload is one file handed to the batch coordinator. Size limits are
// enforced at the transport boundary before an Upload is ever built.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Batch runs the analyzer over a set of uploads.
type Batch struct {
	analyzer *Analyzer
	spool    *Spool
}

// NewBatch creates a batch coordinator over the given spool.
func NewBatch(analyzer *Analyzer, spool *Spool) *Batch {
	return &Batch{analyzer: analyzer, spool: spool}
}

// ProcessAll analyzes every upload in order and returns one result per
// input. A single file's failure produces an error-kind result in its slot
// and processing continues; the batch itself cannot fail.
func (b *Batch) ProcessAll(ctx context.Context, uploads []Upload) []model.FileAnalysisResult {
	results := make([]model.FileAnalysisResult, len(uploads))
	for i, up := range uploads {
		results[i] = b.processOne(ctx, up)
	}
	return results
}

// processOne spools a single upload, analyzes it, and releases the spool
// file on every exit path including a panicking analyzer.
func (b *Batch) processOne(ctx context.Context, up Upload) (result model.FileAnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ANALYZE: panic while processing %q: %v", up.Name, r)
			result = errorResult(up.Name, "Could not process this file.")
		}
	}()

	file, err := b.spool.Save(up.Data)
	if err != nil {
		log.Printf("ANALYZE: spool %q: %v", up.Name, err)
		return errorResult(up.Name, "Could not store this file for processing.")
	}
	defer func() {
		if err := file.Release(); err != nil {
			log.Printf("ANALYZE: release spool for %q: %v", up.Name, err)
		}
	}()

	data, err := file.Bytes()
	if err != nil {
		log.Printf("ANALYZE: read spool for %q: %v", up.Name, err)
		return errorResult(up.Name, "Could not read this file back for processing.")
	}

	return b.analyzer.Analyze(ctx, data, up.MIMEType, up.Name)
}
