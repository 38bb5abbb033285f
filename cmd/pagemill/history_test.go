// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/pagemill/internal/journal"
)

func TestPrintRun(t *testing.T) {
	tests := []struct {
		name string
		run  journal.Run
		want []string
	}{
		{
			name: "assembled with pages",
			run: journal.Run{
				ID:         "0123456789abcdef-0000-0000-0000-000000000000",
				StartedAt:  time.Now().Add(-2 * time.Hour),
				FinishedAt: time.Now(),
				Rendered:   2,
				Assembled:  true,
				Force:      true,
				Pages: []journal.PageRecord{
					{Index: 0, Kind: "frontmatter", Staged: "page_000.tif", Digest: "aabbccddeeff00112233"},
					{Index: 1, Kind: "image", Staged: "page_001.tif", Digest: "ff", Source: "/inks/p1.kra"},
				},
			},
			want: []string{
				"01234567  2 hours ago  2 rendered, assembled --force",
				"page_000.tif  frontmatter  aabbccddeeff  -",
				"page_001.tif  image        ff  /inks/p1.kra",
			},
		},
		{
			name: "unfinished",
			run:  journal.Run{ID: "fedcba98-0000", StartedAt: time.Now(), PDFOnly: true},
			want: []string{"fedcba98", "0 rendered, aborted --pdf-only"},
		},
		{
			name: "finished without assembly",
			run:  journal.Run{ID: "abcdabcd-0000", StartedAt: time.Now(), FinishedAt: time.Now()},
			want: []string{"0 rendered, no update"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printRun(&buf, tt.run)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
