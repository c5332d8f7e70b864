package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"ContractTracker/internal/domain"
	"ContractTracker/internal/source"
)

var (
	nonWord    = regexp.MustCompile(`[^a-z0-9]+`)
	nonNumeric = regexp.MustCompile(`[^0-9.\-]+`)
)

var dateLayouts = []string{domain.DateLayout, "2006/01/02", "2 Jan 2006", "02.01.2006"}

// column is a contract field a register column can feed.
type column int

const (
	colID column = iota
	colContractNo
	colClient
	colProduct
	colTotalQuantity
	colStatus
	colSigning
	colStart
	colProductionStart
	colProductionEnd
	colDue
	colShipping
	colLastUpdated
	colDeposit
	colPreProd
	colMaterial
	colValue
)

// headerAliases maps normalized header captions to fields.
var headerAliases = map[string]column{
	"id":                     colID,
	"contract id":            colID,
	"contract no":            colContractNo,
	"contract number":        colContractNo,
	"client":                 colClient,
	"brand":                  colClient,
	"product":                colProduct,
	"product name":           colProduct,
	"total quantity":         colTotalQuantity,
	"quantity":               colTotalQuantity,
	"status":                 colStatus,
	"signing date":           colSigning,
	"signed":                 colSigning,
	"start date":             colStart,
	"production start":       colProductionStart,
	"production start date":  colProductionStart,
	"production end":         colProductionEnd,
	"production end date":    colProductionEnd,
	"due date":               colDue,
	"due":                    colDue,
	"shipping date":          colShipping,
	"shipped":                colShipping,
	"last updated":           colLastUpdated,
	"updated":                colLastUpdated,
	"deposit":                colDeposit,
	"deposit status":         colDeposit,
	"pre prod payment":       colPreProd,
	"pre production payment": colPreProd,
	"material":               colMaterial,
	"material status":        colMaterial,
	"value":                  colValue,
	"contract value":         colValue,
}

// HTMLRegister reads contract registers exported as HTML tables, either from
// a file or from an HTTP endpoint.
type HTMLRegister struct {
	client *http.Client
}

var _ source.Loader = (*HTMLRegister)(nil)

// NewHTMLRegister wires an HTTP client for remote registers.
func NewHTMLRegister(client *http.Client) *HTMLRegister {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLRegister{client: client}
}

// Kind identifies the loader inside the registry.
func (h *HTMLRegister) Kind() string {
	return "html"
}

// Load parses the register table. Options: "table" is the CSS selector of the
// table (default "table"); "pageSize" enables skip/show pagination for HTTP
// registers.
func (h *HTMLRegister) Load(ctx context.Context, req source.Request) ([]domain.Contract, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no location provided for source %s", req.SourceName)
	}

	selector := req.Option("table", "table")
	pageSize, err := strconv.Atoi(req.Option("pageSize", "0"))
	if err != nil {
		return nil, fmt.Errorf("source %s: invalid pageSize: %w", req.SourceName, err)
	}

	if !isRemote(req.URL) || pageSize <= 0 {
		doc, err := h.open(ctx, req.URL)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", req.SourceName, err)
		}
		contracts, _, err := extractContracts(doc, selector)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", req.SourceName, err)
		}
		return contracts, nil
	}

	results := make([]domain.Contract, 0)
	seen := map[string]struct{}{}
	for skip := 0; ; skip += pageSize {
		pageURL, err := buildPageURL(req.URL, skip, pageSize)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", req.SourceName, err)
		}

		doc, err := h.open(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", req.SourceName, err)
		}

		page, rows, err := extractContracts(doc, selector)
		if err != nil {
			return nil, fmt.Errorf("source %s page at %d: %w", req.SourceName, skip, err)
		}
		added := 0
		for _, c := range page {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			results = append(results, c)
			added++
		}

		// A register ignoring skip/show serves the same rows again.
		if rows < pageSize || added == 0 {
			break
		}
	}

	return results, nil
}

func (h *HTMLRegister) open(ctx context.Context, location string) (*goquery.Document, error) {
	if !isRemote(location) {
		f, err := os.Open(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, fmt.Errorf("open register: %w", err)
		}
		defer f.Close()
		return parseDocument(f)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ContractTracker/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request register: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("register returned %s", resp.Status)
	}

	return parseDocument(resp.Body)
}

func parseDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// extractContracts returns the parsed contracts and the number of data rows
// seen, blank rows included, so pagination can tell a short page.
func extractContracts(doc *goquery.Document, selector string) ([]domain.Contract, int, error) {
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, 0, fmt.Errorf("table %q not found", selector)
	}

	columns, headerIsData := headerColumns(table)
	if _, ok := columns[colID]; !ok {
		if _, ok := columns[colContractNo]; !ok {
			return nil, 0, fmt.Errorf("table %q has neither an id nor a contract number column", selector)
		}
	}

	var (
		contracts []domain.Contract
		rows      int
		parseErr  error
	)
	table.Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() == 0 || (headerIsData && i == 0) {
			return true
		}
		rows++

		values := make([]string, cells.Length())
		cells.Each(func(j int, td *goquery.Selection) {
			values[j] = strings.TrimSpace(td.Text())
		})

		contract, ok, err := parseRow(values, columns)
		if err != nil {
			parseErr = fmt.Errorf("row %d: %w", rows, err)
			return false
		}
		if ok {
			contracts = append(contracts, contract)
		}
		return true
	})
	if parseErr != nil {
		return nil, rows, parseErr
	}

	return contracts, rows, nil
}

// headerColumns reads the first row of th cells, falling back to the first
// row when the export has no th. The flag reports that fallback.
func headerColumns(table *goquery.Selection) (map[column]int, bool) {
	header := table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Find("th").Length() > 0
	}).First()
	cellSel := "th"
	if header.Length() == 0 {
		header = table.Find("tr").First()
		cellSel = "td"
	}

	columns := map[column]int{}
	header.Find(cellSel).Each(func(i int, cell *goquery.Selection) {
		key := strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(cell.Text()), " "))
		if col, ok := headerAliases[key]; ok {
			if _, dup := columns[col]; !dup {
				columns[col] = i
			}
		}
	})
	return columns, cellSel == "td"
}

// parseRow maps one table row. Rows without id and contract number are
// separators and are skipped.
func parseRow(values []string, columns map[column]int) (domain.Contract, bool, error) {
	get := func(col column) string {
		if idx, ok := columns[col]; ok && idx < len(values) {
			return values[idx]
		}
		return ""
	}

	var c domain.Contract
	c.ID = get(colID)
	c.ContractNo = get(colContractNo)
	if c.ID == "" {
		c.ID = c.ContractNo
	}
	if c.ID == "" {
		return domain.Contract{}, false, nil
	}

	c.Client = get(colClient)
	c.ProductName = get(colProduct)

	if raw := get(colTotalQuantity); raw != "" {
		qty, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			return domain.Contract{}, false, fmt.Errorf("contract %s: invalid quantity %q", c.ID, raw)
		}
		c.TotalQuantity = qty
	}

	c.Status = domain.StatusPending
	if raw := get(colStatus); raw != "" {
		status, err := domain.ParseContractStatus(raw)
		if err != nil {
			return domain.Contract{}, false, fmt.Errorf("contract %s: %w", c.ID, err)
		}
		c.Status = status
	}

	dates := []struct {
		col column
		dst **time.Time
	}{
		{colSigning, &c.SigningDate},
		{colStart, &c.StartDate},
		{colProductionStart, &c.ProductionStartDate},
		{colProductionEnd, &c.ProductionEndDate},
		{colDue, &c.DueDate},
		{colShipping, &c.ShippingDate},
		{colLastUpdated, &c.LastUpdated},
	}
	for _, d := range dates {
		parsed, err := parseCellDate(get(d.col))
		if err != nil {
			return domain.Contract{}, false, fmt.Errorf("contract %s: %w", c.ID, err)
		}
		*d.dst = parsed
	}

	c.DepositStatus = domain.ParsePaymentStatus(get(colDeposit))
	c.PreProdPaymentStatus = domain.ParsePaymentStatus(get(colPreProd))
	c.MaterialStatus = domain.ParseMaterialStatus(get(colMaterial))

	c.Value = decimal.Zero
	if raw := nonNumeric.ReplaceAllString(get(colValue), ""); raw != "" && raw != "-" {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Contract{}, false, fmt.Errorf("contract %s: invalid value %q", c.ID, get(colValue))
		}
		c.Value = value
	}

	return c, true, nil
}

func parseCellDate(raw string) (*time.Time, error) {
	if raw == "" || raw == "-" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", raw)
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid register url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
