package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"perfledger/internal/config"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func testApp() *app {
	return &app{
		cfg: &config.Config{SettlementCurrency: "USD", ClosePositions: true},
		log: zap.NewNop(),
	}
}

func TestAppFrom(t *testing.T) {
	a := testApp()
	if got := appFrom([]interface{}{"noise", a}); got != a {
		t.Errorf("appFrom: got %v, want %v", got, a)
	}
	if got := appFrom(nil); got != nil {
		t.Errorf("appFrom(nil): got %v, want nil", got)
	}
}

func TestRunOverrides_Defaults(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantCurrency string
		wantClose    bool
	}{
		{name: "config values", args: nil, wantCurrency: "USD", wantClose: true},
		{name: "currency flag", args: []string{"-currency", "eur"}, wantCurrency: "EUR", wantClose: true},
		{name: "explicit close=false", args: []string{"-close=false"}, wantCurrency: "USD", wantClose: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o runOverrides
			f := flag.NewFlagSet("test", flag.ContinueOnError)
			f.SetOutput(io.Discard)
			o.setFlags(f)
			if err := f.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			got := o.defaults(testApp(), f)
			if got.SettlementCurrency != tt.wantCurrency || got.ClosePositions != tt.wantClose {
				t.Errorf("defaults: got %+v, want currency=%s close=%v", got, tt.wantCurrency, tt.wantClose)
			}
		})
	}
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.json", "notes.txt", "c.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := runFiles(dir)
	if err != nil {
		t.Fatalf("runFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "c.yml"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("runFiles: got %v, want %v", got, want)
	}

	if _, err := runFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
