package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SKIP_ROWS", "")
	t.Setenv("TIMESTAMP_POLICY", "")
	t.Setenv("IMPORT_PROFILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver: got %q, want sqlite", cfg.DBDriver)
	}
	if cfg.Import.SkipRows != 5 {
		t.Errorf("SkipRows: got %d, want 5", cfg.Import.SkipRows)
	}
	if cfg.Import.Table != "Eventos" {
		t.Errorf("Table: got %q, want Eventos", cfg.Import.Table)
	}
	if cfg.Import.Columns.Timestamp != "Marca de tiempo" {
		t.Errorf("timestamp column: got %q", cfg.Import.Columns.Timestamp)
	}
	if cfg.Import.TimestampPolicy != PolicyLenient {
		t.Errorf("policy: got %q, want %q", cfg.Import.TimestampPolicy, PolicyLenient)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SKIP_ROWS", "2")
	t.Setenv("DAY_FIRST", "true")
	t.Setenv("TIMESTAMP_POLICY", "pattern")
	t.Setenv("CHROME_BIN", "/opt/custom/chrome")
	t.Setenv("IMPORT_PROFILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChromeBin != "/opt/custom/chrome" {
		t.Errorf("ChromeBin: got %q, want /opt/custom/chrome", cfg.ChromeBin)
	}
	if cfg.Import.SkipRows != 2 {
		t.Errorf("SkipRows: got %d, want 2", cfg.Import.SkipRows)
	}
	if !cfg.Import.DayFirst {
		t.Error("DayFirst should be true")
	}
	if cfg.Import.TimestampPolicy != PolicyPattern {
		t.Errorf("policy: got %q", cfg.Import.TimestampPolicy)
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("TIMESTAMP_POLICY", "guess")
	t.Setenv("IMPORT_PROFILE", "")

	_, err := Load()
	if !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("expected ErrUnknownPolicy, got %v", err)
	}
}

func TestApplyProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	profile := `
skip_rows: 3
delimiter: ";"
encoding: windows-1252
extra_layouts:
  - "2006.01.02 15:04"
columns:
  timestamp: Timestamp
`
	if err := os.WriteFile(path, []byte(profile), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Import: ImportProfile{
		SkipRows:        5,
		Delimiter:       ",",
		Encoding:        "latin1",
		TimestampPolicy: PolicyLenient,
		Columns:         Columns{Timestamp: "Marca de tiempo", Event: "Evento", Actor: "Usuario"},
	}}
	if err := cfg.ApplyProfile(path); err != nil {
		t.Fatalf("ApplyProfile: %v", err)
	}

	if cfg.Import.SkipRows != 3 {
		t.Errorf("SkipRows: got %d, want 3", cfg.Import.SkipRows)
	}
	if cfg.Import.Delimiter != ";" {
		t.Errorf("Delimiter: got %q", cfg.Import.Delimiter)
	}
	if cfg.Import.Encoding != "windows-1252" {
		t.Errorf("Encoding: got %q", cfg.Import.Encoding)
	}
	if cfg.Import.Columns.Timestamp != "Timestamp" {
		t.Errorf("timestamp column: got %q", cfg.Import.Columns.Timestamp)
	}
	if cfg.Import.Columns.Event != "Evento" {
		t.Errorf("event column should be untouched, got %q", cfg.Import.Columns.Event)
	}
	if len(cfg.Import.ExtraLayouts) != 1 {
		t.Errorf("ExtraLayouts: got %v", cfg.Import.ExtraLayouts)
	}
}

func TestApplyProfileExplicitZeroValues(t *testing.T) {
	tests := []struct {
		name         string
		profile      string
		wantSkipRows int
		wantDayFirst bool
	}{
		{"explicit zeros override", "skip_rows: 0\nday_first: false\n", 0, false},
		{"absent keys keep current", "delimiter: \";\"\n", 5, true},
		{"explicit values override", "skip_rows: 2\nday_first: true\n", 2, true},
	}

	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "profile.yaml")
		if err := os.WriteFile(path, []byte(tt.profile), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg := &Config{Import: ImportProfile{SkipRows: 5, DayFirst: true}}
		if err := cfg.ApplyProfile(path); err != nil {
			t.Fatalf("%s: ApplyProfile: %v", tt.name, err)
		}
		if cfg.Import.SkipRows != tt.wantSkipRows {
			t.Errorf("%s: SkipRows: got %d, want %d", tt.name, cfg.Import.SkipRows, tt.wantSkipRows)
		}
		if cfg.Import.DayFirst != tt.wantDayFirst {
			t.Errorf("%s: DayFirst: got %v, want %v", tt.name, cfg.Import.DayFirst, tt.wantDayFirst)
		}
	}
}

func TestValidateDelimiter(t *testing.T) {
	cfg := &Config{Import: ImportProfile{TimestampPolicy: PolicyLenient, Delimiter: ";;"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for multi-character delimiter")
	}
}
