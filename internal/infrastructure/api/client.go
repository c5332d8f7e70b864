package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ContractTracker/internal/domain"
	"ContractTracker/internal/ports"
	"ContractTracker/internal/source"
)

const defaultPageSize = 100

// Client reads contracts and production lines from the contracts API.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	pageSize int
}

var _ ports.ContractSource = (*Client)(nil)
var _ source.Loader = (*Client)(nil)
var _ ports.MachineSource = (*Client)(nil)

// NewClient creates a reusable HTTP client. A zero timeout means 15s.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		token:    token,
		http:     &http.Client{Timeout: timeout},
		pageSize: defaultPageSize,
	}
}

// Kind identifies the loader inside the source registry.
func (c *Client) Kind() string {
	return "api"
}

// Load reads contracts from req.URL, or from the client base URL when the
// request has none.
func (c *Client) Load(ctx context.Context, req source.Request) ([]domain.Contract, error) {
	base := strings.TrimSuffix(req.URL, "/")
	if base == "" {
		base = c.baseURL
	}
	return c.fetchContracts(ctx, base)
}

// FetchContracts pages through GET /contracts/?include=products until a short
// page or a page with no new contracts.
func (c *Client) FetchContracts(ctx context.Context) ([]domain.Contract, error) {
	return c.fetchContracts(ctx, c.baseURL)
}

func (c *Client) fetchContracts(ctx context.Context, base string) ([]domain.Contract, error) {
	if base == "" {
		return nil, fmt.Errorf("contracts api url is not configured")
	}

	var contracts []domain.Contract
	seen := map[string]struct{}{}
	for offset := 0; ; offset += c.pageSize {
		query := url.Values{}
		query.Set("include", "products")
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(offset))

		var page []contractResponse
		if err := c.get(ctx, base+"/contracts/?"+query.Encode(), &page); err != nil {
			return nil, fmt.Errorf("list contracts at offset %d: %w", offset, err)
		}

		added := 0
		for _, resp := range page {
			contract, err := resp.toDomain()
			if err != nil {
				return nil, fmt.Errorf("contract %s: %w", resp.ContractID, err)
			}
			if _, dup := seen[contract.ID]; dup {
				continue
			}
			seen[contract.ID] = struct{}{}
			contracts = append(contracts, contract)
			added++
		}

		// A server ignoring limit/offset repeats the same page.
		if len(page) < c.pageSize || added == 0 {
			break
		}
	}

	return contracts, nil
}

// FetchMachines maps production line categories to rooms.
func (c *Client) FetchMachines(ctx context.Context) ([]domain.Machine, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("contracts api url is not configured")
	}

	var categories []lineCategoryResponse
	if err := c.get(ctx, c.baseURL+"/production-lines/production-line-mapping", &categories); err != nil {
		return nil, fmt.Errorf("list production lines: %w", err)
	}

	var machines []domain.Machine
	for _, cat := range categories {
		for _, line := range cat.ProductionLines {
			name := line.Label
			if name == "" {
				name = line.Name
			}
			machines = append(machines, domain.Machine{
				ID:   line.ID,
				Name: name,
				Room: cat.Name,
			})
		}
	}
	return machines, nil
}

func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type contractResponse struct {
	ContractID                        string            `json:"contract_id"`
	Status                            string            `json:"status"`
	SigningDate                       string            `json:"signing_date"`
	ContractNumber                    string            `json:"contract_number"`
	Brand                             string            `json:"brand"`
	DepositDate                       string            `json:"deposit_date"`
	DepositPaymentStatus              string            `json:"deposit_payment_status"`
	PreProdPaymentStatus              string            `json:"pre_prod_payment_status"`
	EstimatedProductionCompletionDate string            `json:"estimated_production_completion_date"`
	UpdatedAt                         string            `json:"db_update_tms"`
	Products                          []productResponse `json:"products"`
}

type productResponse struct {
	ProductName            string                  `json:"product_name"`
	TotalQuantity          *int                    `json:"total_quantity"`
	ProductionScheduleDate string                  `json:"production_schedule_date"`
	ShippingDate           string                  `json:"shipping_date"`
	ActualQuantityShipped  *int                    `json:"actual_quantity_shipped"`
	RawMaterials           []rawMaterialResponse   `json:"raw_materials"`
	ProductionSchedules    []productionScheduleRef `json:"production_schedules"`
}

type rawMaterialResponse struct {
	ArrivalStatus string `json:"raw_material_arrival_status"`
}

type productionScheduleRef struct {
	StartDate string `json:"production_schedule_start_date"`
	EndDate   string `json:"production_schedule_end_date"`
}

type lineCategoryResponse struct {
	Name            string `json:"production_line_category_name"`
	ProductionLines []struct {
		ID    string `json:"production_line_id"`
		Name  string `json:"production_line_name"`
		Label string `json:"production_line_label"`
	} `json:"production_lines"`
}

// toDomain folds a contract and its products into one tracked contract.
// Product dates contribute their earliest value, quantities are summed.
func (r contractResponse) toDomain() (domain.Contract, error) {
	status, err := domain.ParseContractStatus(r.Status)
	if err != nil {
		return domain.Contract{}, err
	}

	c := domain.Contract{
		ID:                   r.ContractID,
		ContractNo:           r.ContractNumber,
		Client:               r.Brand,
		Status:               status,
		DepositStatus:        domain.ParsePaymentStatus(r.DepositPaymentStatus),
		PreProdPaymentStatus: domain.ParsePaymentStatus(r.PreProdPaymentStatus),
	}

	dates := []struct {
		raw string
		dst **time.Time
	}{
		{r.SigningDate, &c.SigningDate},
		{r.DepositDate, &c.StartDate},
		{r.EstimatedProductionCompletionDate, &c.ProductionEndDate},
		{r.UpdatedAt, &c.LastUpdated},
	}
	for _, d := range dates {
		parsed, err := parseOptionalDate(d.raw)
		if err != nil {
			return domain.Contract{}, err
		}
		*d.dst = parsed
	}

	var (
		names     []string
		arrivals  []string
		shipped   bool
		prodStart []string
		due       []string
	)
	for _, p := range r.Products {
		if p.ProductName != "" {
			names = append(names, p.ProductName)
		}
		if p.TotalQuantity != nil {
			c.TotalQuantity += *p.TotalQuantity
		}
		for _, m := range p.RawMaterials {
			arrivals = append(arrivals, m.ArrivalStatus)
		}
		if p.ProductionScheduleDate != "" {
			prodStart = append(prodStart, p.ProductionScheduleDate)
		}
		for _, s := range p.ProductionSchedules {
			if s.StartDate != "" {
				prodStart = append(prodStart, s.StartDate)
			}
		}
		if p.ShippingDate != "" {
			due = append(due, p.ShippingDate)
			if p.ActualQuantityShipped != nil && *p.ActualQuantityShipped > 0 {
				shipped = true
			}
		}
	}

	c.ProductName = strings.Join(names, ", ")
	c.MaterialStatus = domain.MaterialStatusOf(arrivals)

	if c.ProductionStartDate, err = earliest(prodStart); err != nil {
		return domain.Contract{}, err
	}
	if c.DueDate, err = earliest(due); err != nil {
		return domain.Contract{}, err
	}
	if shipped {
		c.ShippingDate = c.DueDate
	}

	return c, nil
}

// parseOptionalDate accepts YYYY-MM-DD and RFC 3339 timestamps.
func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := domain.ParseDate(raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return domain.DatePtr(t), nil
}

func earliest(raw []string) (*time.Time, error) {
	var days []time.Time
	for _, value := range raw {
		t, err := parseOptionalDate(value)
		if err != nil {
			return nil, err
		}
		if t != nil {
			days = append(days, *t)
		}
	}
	if len(days) == 0 {
		return nil, nil
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return &days[0], nil
}
