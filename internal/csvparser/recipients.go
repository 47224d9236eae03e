package csvparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrNoEmailColumn = errors.New("csv must contain an Email column")
	ErrNoRows        = errors.New("csv must contain at least one data row")
)

// Recipient is one CSV row. Fields holds every other column keyed by header.
type Recipient struct {
	Email  string
	Fields map[string]string
}

// ParseRecipients reads a CSV whose header has an "Email" column
// (case-insensitive). Rows with the wrong column count or an empty email are
// skipped. At most maxRows recipients are returned.
func ParseRecipients(r io.Reader, maxRows int) ([]Recipient, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	emailIdx := -1
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		if emailIdx == -1 && strings.EqualFold(headers[i], "email") {
			emailIdx = i
		}
	}
	if emailIdx == -1 {
		return nil, ErrNoEmailColumn
	}

	if maxRows <= 0 {
		maxRows = 1000
	}

	var out []Recipient
	for len(out) < maxRows {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if len(record) != len(headers) {
			continue
		}

		email := strings.TrimSpace(record[emailIdx])
		if email == "" {
			continue
		}

		fields := make(map[string]string, len(headers)-1)
		for i, v := range record {
			if i == emailIdx || headers[i] == "" {
				continue
			}
			fields[headers[i]] = strings.TrimSpace(v)
		}
		out = append(out, Recipient{Email: email, Fields: fields})
	}

	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

// Render replaces {{Column}} placeholders with the recipient's values.
// {{Email}} is always available. Unknown placeholders are left as they are.
func Render(template string, r Recipient) string {
	pairs := make([]string, 0, 2*len(r.Fields)+2)
	pairs = append(pairs, "{{Email}}", r.Email)
	for k, v := range r.Fields {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
