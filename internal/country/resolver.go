// Package country resolves free-text country and territory names to ISO3
// codes using the World Bank economies listing, with a curated override
// table for names the listing is known to miss.
package country

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Coder maps one country name to an ISO3 code. An unrecognized name yields
// an empty code and a nil error; errors are reserved for transport
// failures so a downed lookup service fails the calling source instead of
// silently unresolving every row.
type Coder interface {
	Code(name string) (string, error)
}

// DefaultOverrides lists names the World Bank economy coder fails on:
// disputed territories, diacritic spellings and alternate names observed
// in the raw sources.
var DefaultOverrides = map[string]string{
	"Cook Islands":          "COK",
	"Montserrat":            "MSR",
	"Republika Srpska":      "BIH",
	"São Tomé and Príncipe": "STP",
	"Taiwan":                "TWN",
	"Vietnam":               "VNM",
}

// Resolver wraps a Coder with the override table and a per-run cache.
// The override is consulted only after the primary lookup comes back empty.
type Resolver struct {
	coder     Coder
	overrides map[string]string

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a resolver around coder. A nil overrides map
// disables the fallback path.
func NewResolver(coder Coder, overrides map[string]string) *Resolver {
	return &Resolver{
		coder:     coder,
		overrides: overrides,
		cache:     make(map[string]string),
	}
}

// Resolve returns the ISO3 code for name, or an empty string when the name
// cannot be resolved. Blank input resolves to empty without touching the
// coder.
func (r *Resolver) Resolve(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", nil
	}

	r.mu.Lock()
	if code, ok := r.cache[trimmed]; ok {
		r.mu.Unlock()
		return code, nil
	}
	r.mu.Unlock()

	code, err := r.coder.Code(trimmed)
	if err != nil {
		return "", fmt.Errorf("country lookup for %q: %w", trimmed, err)
	}
	if code == "" && r.overrides != nil {
		code = r.overrides[trimmed]
	}

	r.mu.Lock()
	r.cache[trimmed] = code
	r.mu.Unlock()

	return code, nil
}

// StaticCoder resolves names against a fixed name→ISO3 table. Lookup is
// case-insensitive on trimmed names.
type StaticCoder map[string]string

// Code implements Coder
func (c StaticCoder) Code(name string) (string, error) {
	for k, v := range c {
		if strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(name)) {
			return v, nil
		}
	}
	return "", nil
}

// WorldBankCoder resolves names against the World Bank economies API.
// The full economy listing is fetched once, lazily, and matched by
// normalized name; individual lookups never hit the network again.
type WorldBankCoder struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter

	once    sync.Once
	table   map[string]string
	loadErr error
}

// NewWorldBankCoder creates a coder against baseURL (the /v2 API root)
func NewWorldBankCoder(baseURL string, timeout time.Duration, rps float64) *WorldBankCoder {
	return &WorldBankCoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Code implements Coder
func (c *WorldBankCoder) Code(name string) (string, error) {
	c.once.Do(c.load)
	if c.loadErr != nil {
		return "", c.loadErr
	}
	return c.table[normalizeName(name)], nil
}

// economyPage mirrors the two-element response of the economy endpoint:
// a metadata object followed by the page of economies.
type economyMeta struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage any `json:"per_page"`
	Total   int `json:"total"`
}

type economy struct {
	ID   string `json:"id"`
	Name string `json:"value"`
}

func (c *WorldBankCoder) load() {
	c.table = make(map[string]string)

	page := 1
	for {
		meta, economies, err := c.fetchPage(page)
		if err != nil {
			c.loadErr = fmt.Errorf("fetching economy listing page %d: %w", page, err)
			return
		}
		for _, e := range economies {
			if e.ID == "" || e.Name == "" {
				continue
			}
			c.table[normalizeName(e.Name)] = e.ID
		}
		if page >= meta.Pages {
			break
		}
		page++
	}

	slog.Debug("loaded World Bank economy listing", slog.Int("entries", len(c.table)))
}

func (c *WorldBankCoder) fetchPage(page int) (*economyMeta, []economy, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.client.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	url := fmt.Sprintf("%s/economy?format=json&per_page=500&page=%d", c.baseURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %d from economy endpoint", resp.StatusCode)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decoding economy listing: %w", err)
	}
	if len(raw) < 2 {
		return nil, nil, fmt.Errorf("malformed economy listing response")
	}

	var meta economyMeta
	if err := json.Unmarshal(raw[0], &meta); err != nil {
		return nil, nil, fmt.Errorf("decoding economy listing metadata: %w", err)
	}
	var economies []economy
	if err := json.Unmarshal(raw[1], &economies); err != nil {
		return nil, nil, fmt.Errorf("decoding economy entries: %w", err)
	}
	return &meta, economies, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
