package main

import (
	"errors"
	"os"
	"path/filepath"
	"perfledger/types"
	"testing"
)

func TestSummaryPath(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		runID   string
		want    string
		wantErr bool
	}{
		{runID: "run-42", want: filepath.Join(dir, "run-42.summary.json")},
		{runID: "../x", wantErr: true},
		{runID: "a/b", wantErr: true},
		{runID: `a\b`, wantErr: true},
		{runID: "..", wantErr: true},
		{runID: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.runID, func(t *testing.T) {
			got, err := summaryPath(dir, tt.runID)
			if tt.wantErr {
				if !errors.Is(err, errUnsafeRunID) {
					t.Errorf("summaryPath(%q): got err %v, want errUnsafeRunID", tt.runID, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("summaryPath(%q) = %q, %v, want %q", tt.runID, got, err, tt.want)
			}
		})
	}
}

func TestWriteSummaryFile_StaysInsideDir(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatal(err)
	}

	err := writeSummaryFile(out, types.RunSummary{RunID: "../escaped"})
	if !errors.Is(err, errUnsafeRunID) {
		t.Fatalf("writeSummaryFile: got %v, want errUnsafeRunID", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escaped.summary.json")); !os.IsNotExist(err) {
		t.Errorf("summary written outside the output directory: %v", err)
	}

	if err := writeSummaryFile(out, types.RunSummary{RunID: "ok", SettlementCurrency: "USD"}); err != nil {
		t.Fatalf("writeSummaryFile: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "ok.summary.json")); err != nil {
		t.Errorf("summary file missing: %v", err)
	}
}
