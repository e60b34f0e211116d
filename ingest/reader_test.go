package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const preamble = "Event Log Export\nSystem: LYO-02\nFrom: 01-01-2024\nTo: 31-01-2024\n\n"

func TestReadSkipsPreamble(t *testing.T) {
	input := preamble +
		"01-02-2024 10:15:00,Alarm High Temp - Ack Por jsmith\n" +
		"01-02-2024 11:00:00,Login - Por admin\n"

	rows, err := Read(strings.NewReader(input), DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if rows[0].TimestampText != "01-02-2024 10:15:00" {
		t.Errorf("timestamp text: got %q", rows[0].TimestampText)
	}
	if rows[0].EventText != "Alarm High Temp - Ack Por jsmith" {
		t.Errorf("event text: got %q", rows[0].EventText)
	}
	if rows[0].Line != 6 {
		t.Errorf("line: got %d, want 6", rows[0].Line)
	}
}

func TestReadDecodesLatin1(t *testing.T) {
	// "Configuración" with é/ó encoded as single latin1 bytes.
	var buf bytes.Buffer
	buf.WriteString(preamble)
	buf.Write([]byte("01-02-2024 10:15:00,Configuraci\xf3n cambiada - Por Jos\xe9\n"))

	rows, err := Read(&buf, DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	want := "Configuración cambiada - Por José"
	if rows[0].EventText != want {
		t.Errorf("event text: got %q, want %q", rows[0].EventText, want)
	}
}

func TestReadWrongColumnCountIsFatal(t *testing.T) {
	input := preamble +
		"01-02-2024 10:15:00,Alarm - Por jsmith\n" +
		"01-02-2024 10:16:00,Alarm,extra - Por jsmith\n"

	_, err := Read(strings.NewReader(input), DefaultOptions())
	if !errors.Is(err, ErrColumnCount) {
		t.Fatalf("expected ErrColumnCount, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 7") {
		t.Errorf("error should name line 7: %v", err)
	}
}

func TestReadQuotedFieldWithDelimiter(t *testing.T) {
	input := preamble + `01-02-2024 10:15:00,"Setpoint 1,5 C - Changed Por qa_lead"` + "\n"

	rows, err := Read(strings.NewReader(input), DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rows[0].EventText != "Setpoint 1,5 C - Changed Por qa_lead" {
		t.Errorf("event text: got %q", rows[0].EventText)
	}
}

func TestReadCustomDelimiter(t *testing.T) {
	opts := DefaultOptions()
	opts.Delimiter = ';'
	opts.SkipRows = 0

	rows, err := Read(strings.NewReader("01-02-2024 10:15:00;Door Open - Por op1\r\n"), opts)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 1 || rows[0].EventText != "Door Open - Por op1" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestReadShortFileYieldsNoRows(t *testing.T) {
	rows, err := Read(strings.NewReader("only\ntwo lines"), DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows: got %d, want 0", len(rows))
	}
}

func TestReadUnknownEncoding(t *testing.T) {
	opts := DefaultOptions()
	opts.Encoding = "ebcdic"

	_, err := Read(strings.NewReader(""), opts)
	if !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("expected ErrUnknownEncoding, got %v", err)
	}
}
