// Package report reads the HTML-ish detailed statement exported by the
// trading terminal. It only knows about lines, anchors and cells; typing the
// cells is left to the history package.
package report

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	// TradesAnchor is the last line of the closed-transactions table header.
	TradesAnchor = `<td>Price</td><td>Commission</td><td>Taxes</td><td>Swap</td><td>Profit</td></tr>`
	// AccountAnchor opens the account header row.
	AccountAnchor = `<tr align=left>`
)

var (
	// ErrAnchorNotFound is returned when a section anchor is missing from the report.
	ErrAnchorNotFound = errors.New("anchor line not found")
	// ErrUnterminatedSection is returned when no blank line follows an anchor.
	ErrUnterminatedSection = errors.New("section is not terminated by a blank line")
)

// Parser splits a statement into lines and extracts its sections.
type Parser struct {
	lines  []string
	logger *zap.Logger
}

// NewParser creates a Parser over the raw statement text.
func NewParser(text string, logger *zap.Logger) *Parser {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	p := &Parser{
		lines:  strings.Split(text, "\n"),
		logger: logger.Named("report-parser"),
	}
	p.logger.Info("Report loaded", zap.Int("lines", len(p.lines)))
	return p
}

// FromFile creates a Parser from a statement stored on disk.
func FromFile(path string, logger *zap.Logger) (*Parser, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	return NewParser(string(raw), logger), nil
}

// FromBase64 creates a Parser from a base64 encoded upload payload.
// A data URL prefix such as "data:text/html;base64," is accepted.
func FromBase64(payload string, logger *zap.Logger) (*Parser, error) {
	if i := strings.Index(payload, ";base64,"); i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to decode report upload: %w", err)
	}
	return NewParser(string(raw), logger), nil
}

// Operations returns the cell values of every row of the trade/balance table.
func (p *Parser) Operations() ([][]string, error) {
	section, err := p.section(TradesAnchor)
	if err != nil {
		return nil, fmt.Errorf("failed to extract operations: %w", err)
	}

	rows := make([][]string, 0, len(section))
	for _, line := range section {
		rows = append(rows, Cells(line))
	}
	p.logger.Debug("Operations extracted", zap.Int("rows", len(rows)))
	return rows, nil
}

// AccountInfo returns the "key: value" pairs of the account header with
// lower-cased keys. Cells without a colon are skipped.
func (p *Parser) AccountInfo() (map[string]string, error) {
	section, err := p.section(AccountAnchor)
	if err != nil {
		return nil, fmt.Errorf("failed to extract account info: %w", err)
	}

	info := make(map[string]string)
	for _, line := range section {
		for _, cell := range Cells(line) {
			key, value, ok := strings.Cut(cell, ":")
			if !ok {
				continue
			}
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			info[key] = strings.TrimSpace(value)
		}
	}
	return info, nil
}

// section returns the lines after anchor up to, not including, the next blank line.
func (p *Parser) section(anchor string) ([]string, error) {
	start := -1
	for i, line := range p.lines {
		if strings.TrimSpace(line) == anchor {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: %q", ErrAnchorNotFound, anchor)
	}

	for i := start; i < len(p.lines); i++ {
		if strings.TrimSpace(p.lines[i]) == "" {
			return p.lines[start:i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnterminatedSection, anchor)
}

// Cells returns the inner text of every <td> element of a table row fragment,
// left to right, with markup stripped.
func Cells(line string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + line + "</table>"))
	if err != nil {
		return nil
	}
	cells := make([]string, 0)
	doc.Find("td").Each(func(_ int, s *goquery.Selection) {
		cells = append(cells, s.Text())
	})
	return cells
}
