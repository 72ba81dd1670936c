package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
)

var csvHeader = []string{"date", "direction", "volume", "rate"}

// dateLayouts are tried in order for the date column.
var dateLayouts = []string{time.RFC3339, time.DateTime, time.DateOnly}

// ParseTransactionsCSV reads date,direction,volume,rate rows. A header row
// naming those columns is optional. Dates without a zone are taken as UTC.
// Errors carry the 1-based line number of the offending row.
func ParseTransactionsCSV(r io.Reader) ([]domain.NewTransaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var rows []domain.NewTransaction
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ParseTransactionsCSV: %w: %w", err, domain.ErrInvalidInput)
		}

		line, _ := reader.FieldPos(0)
		if len(rows) == 0 && isHeader(record) {
			continue
		}

		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("ParseTransactionsCSV: line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isHeader(record []string) bool {
	for i, name := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(record[i]), name) {
			return false
		}
	}
	return true
}

func parseRecord(record []string) (domain.NewTransaction, error) {
	date, err := parseDate(record[0])
	if err != nil {
		return domain.NewTransaction{}, err
	}
	direction, err := domain.ParseDirection(record[1])
	if err != nil {
		return domain.NewTransaction{}, err
	}
	volume, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return domain.NewTransaction{}, fmt.Errorf("volume %q: %w", record[2], domain.ErrInvalidInput)
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return domain.NewTransaction{}, fmt.Errorf("rate %q: %w", record[3], domain.ErrInvalidInput)
	}

	t := domain.NewTransaction{Date: date, Direction: direction, Volume: volume, Rate: rate}
	if err := t.Validate(); err != nil {
		return domain.NewTransaction{}, err
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: want RFC3339 or YYYY-MM-DD: %w", s, domain.ErrInvalidInput)
}
