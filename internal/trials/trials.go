// Package trials resolves clinical-trial names to their registered drug
// interventions via the ClinicalTrials.gov v2 API, with an optional
// local SQLite cache.
package trials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	cerrors "github.com/FocuswithJustin/Slidecast/core/errors"
)

// DefaultAPIBase is the public ClinicalTrials.gov v2 endpoint.
const DefaultAPIBase = "https://clinicaltrials.gov/api/v2"

const searchFields = "NCTId,BriefTitle,protocolSection.armsInterventionsModule.interventions"

// Result is the resolved drug list for one trial name.
type Result struct {
	Name  string
	NCTID string
	Drugs []string
}

// Client talks to the trials API. A nil cache means every lookup goes
// to the network.
type Client struct {
	base string
	http *http.Client
	db   *sql.DB
}

// New builds a client. base falls back to DefaultAPIBase when empty;
// cachePath, when non-empty, opens (and if needed creates) a SQLite
// cache of past lookups.
func New(ctx context.Context, base, cachePath string) (*Client, error) {
	if base == "" {
		base = DefaultAPIBase
	}
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
	if cachePath == "" {
		return c, nil
	}

	db, err := sql.Open("sqlite", cachePath)
	if err != nil {
		return nil, fmt.Errorf("opening trials cache: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging trials cache: %w", err)
	}
	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trial_drugs (
			name    TEXT PRIMARY KEY,
			nct_id  TEXT NOT NULL,
			drugs   TEXT NOT NULL,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating trials cache schema: %w", err)
	}

	c.db = db
	return c, nil
}

// Close releases the cache handle, if any.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Drugs resolves one trial name. All search hits contribute drug
// interventions; duplicates are dropped keeping first-seen order. The
// NCT id reported is the top hit's.
func (c *Client) Drugs(ctx context.Context, name string) (*Result, error) {
	if cached, ok := c.cacheGet(ctx, name); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("query.titles", name)
	params.Set("fields", searchFields)
	params.Set("pageSize", "5")
	params.Set("format", "json")

	var resp searchResponse
	if err := c.get(ctx, c.base+"/studies?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Studies) == 0 {
		return nil, cerrors.NewValidation("trial", fmt.Sprintf("no studies found for %q", name))
	}

	res := &Result{
		Name:  name,
		NCTID: resp.Studies[0].ProtocolSection.IdentificationModule.NCTID,
	}
	seen := make(map[string]bool)
	for _, st := range resp.Studies {
		for _, iv := range st.ProtocolSection.ArmsInterventionsModule.Interventions {
			if iv.Type != "DRUG" || seen[iv.Name] {
				continue
			}
			seen[iv.Name] = true
			res.Drugs = append(res.Drugs, iv.Name)
		}
	}

	c.cachePut(ctx, res)
	return res, nil
}

// DrugsAll resolves several trial names concurrently, capped at four
// in-flight requests, returning results in input order.
func (c *Client) DrugsAll(ctx context.Context, names []string) ([]*Result, error) {
	results := make([]*Result, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res, err := c.Drugs(ctx, name)
			if err != nil {
				return fmt.Errorf("resolving %q: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("querying trials api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("trials api returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) cacheGet(ctx context.Context, name string) (*Result, bool) {
	if c.db == nil {
		return nil, false
	}
	var nctID, joined string
	err := c.db.QueryRowContext(ctx,
		`SELECT nct_id, drugs FROM trial_drugs WHERE name = ?`, name).Scan(&nctID, &joined)
	if err != nil {
		return nil, false
	}
	res := &Result{Name: name, NCTID: nctID}
	if joined != "" {
		res.Drugs = strings.Split(joined, "\x1f")
	}
	return res, true
}

func (c *Client) cachePut(ctx context.Context, res *Result) {
	if c.db == nil {
		return
	}
	// Best effort: a failed cache write never fails the lookup.
	c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO trial_drugs (name, nct_id, drugs) VALUES (?, ?, ?)`,
		res.Name, res.NCTID, strings.Join(res.Drugs, "\x1f"))
}

type searchResponse struct {
	Studies []struct {
		ProtocolSection struct {
			IdentificationModule struct {
				NCTID string `json:"nctId"`
			} `json:"identificationModule"`
			ArmsInterventionsModule struct {
				Interventions []struct {
					Type string `json:"type"`
					Name string `json:"name"`
				} `json:"interventions"`
			} `json:"armsInterventionsModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
}
