package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"event-dashboard/models"
)

var (
	// ErrColumnCount marks a data row whose field count differs from the
	// expected column count. The whole file is rejected.
	ErrColumnCount = errors.New("ingest: wrong column count")
	// ErrUnknownEncoding is returned for an encoding name Read cannot decode.
	ErrUnknownEncoding = errors.New("ingest: unknown encoding")
	// ErrMalformed wraps read and quoting failures of the delimited body.
	ErrMalformed = errors.New("ingest: malformed export")
)

// Options controls how an export file is read.
type Options struct {
	SkipRows  int
	Delimiter rune
	Encoding  string
	Columns   int
}

// DefaultOptions matches the equipment export: five preamble lines, two
// comma-separated latin1 columns.
func DefaultOptions() Options {
	return Options{SkipRows: 5, Delimiter: ',', Encoding: "latin1", Columns: 2}
}

// Read decodes an export and returns its data rows in input order.
func Read(r io.Reader, opts Options) ([]models.RawRecord, error) {
	if opts.Columns == 0 {
		opts.Columns = 2
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	decoded, err := decode(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(decoded)
	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return []models.RawRecord{}, nil
			}
			return nil, fmt.Errorf("%w: skip preamble: %w", ErrMalformed, err)
		}
	}

	cr := csv.NewReader(br)
	cr.Comma = opts.Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records := make([]models.RawRecord, 0, 64)
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}

		line, _ := cr.FieldPos(0)
		line += opts.SkipRows
		if len(fields) != opts.Columns {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d",
				ErrColumnCount, line, len(fields), opts.Columns)
		}

		records = append(records, models.RawRecord{
			Line:          line,
			TimestampText: fields[0],
			EventText:     strings.TrimRight(fields[1], "\r"),
		})
	}
	return records, nil
}

func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "utf-8", "utf8":
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}
