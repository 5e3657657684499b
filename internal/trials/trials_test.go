package trials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func studiesResponse(nctID string, interventions ...[2]string) map[string]any {
	ivs := make([]map[string]string, 0, len(interventions))
	for _, iv := range interventions {
		ivs = append(ivs, map[string]string{"type": iv[0], "name": iv[1]})
	}
	return map[string]any{
		"studies": []map[string]any{
			{
				"protocolSection": map[string]any{
					"identificationModule": map[string]string{"nctId": nctID},
					"armsInterventionsModule": map[string]any{
						"interventions": ivs,
					},
				},
			},
		},
	}
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestDrugs(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/studies" {
			t.Errorf("path = %s, want /studies", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("query.titles") != "CheckMate 227" {
			t.Errorf("query.titles = %q", q.Get("query.titles"))
		}
		if q.Get("pageSize") != "5" || q.Get("format") != "json" {
			t.Errorf("unexpected paging params: %v", q)
		}
		json.NewEncoder(w).Encode(studiesResponse("NCT02477826",
			[2]string{"DRUG", "Nivolumab"},
			[2]string{"DRUG", "Ipilimumab"},
			[2]string{"PROCEDURE", "Biopsy"},
			[2]string{"DRUG", "Nivolumab"}, // duplicate must collapse
		))
	})

	client, err := New(context.Background(), srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	res, err := client.Drugs(context.Background(), "CheckMate 227")
	if err != nil {
		t.Fatal(err)
	}
	if res.NCTID != "NCT02477826" {
		t.Errorf("NCTID = %s", res.NCTID)
	}
	want := []string{"Nivolumab", "Ipilimumab"}
	if strings.Join(res.Drugs, ",") != strings.Join(want, ",") {
		t.Errorf("Drugs = %v, want %v", res.Drugs, want)
	}
}

func TestDrugsNoStudies(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"studies": []any{}})
	})

	client, err := New(context.Background(), srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if _, err := client.Drugs(context.Background(), "Nonexistent Trial"); err == nil {
		t.Error("expected an error when no studies match")
	}
}

func TestDrugsServerError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	client, err := New(context.Background(), srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	_, err = client.Drugs(context.Background(), "Anything")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want a 502 status error", err)
	}
}

func TestDrugsCaching(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(studiesResponse("NCT00000001", [2]string{"DRUG", "Placebo"}))
	})

	cache := filepath.Join(t.TempDir(), "trials.db")
	ctx := context.Background()

	client, err := New(ctx, srv.URL, cache)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Drugs(ctx, "Some Trial"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Drugs(ctx, "Some Trial"); err != nil {
		t.Fatal(err)
	}
	client.Close()

	if got := calls.Load(); got != 1 {
		t.Errorf("API calls = %d, want 1 (second lookup served from cache)", got)
	}

	// A fresh client over the same cache file still avoids the network.
	client2, err := New(ctx, srv.URL, cache)
	if err != nil {
		t.Fatal(err)
	}
	defer client2.Close()
	res, err := client2.Drugs(ctx, "Some Trial")
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("API calls = %d after cache reopen, want 1", calls.Load())
	}
	if len(res.Drugs) != 1 || res.Drugs[0] != "Placebo" {
		t.Errorf("cached Drugs = %v", res.Drugs)
	}
}

func TestDrugsAllKeepsInputOrder(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("query.titles")
		json.NewEncoder(w).Encode(studiesResponse("NCT-"+name, [2]string{"DRUG", "Drug for " + name}))
	})

	client, err := New(context.Background(), srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	names := []string{"Alpha", "Beta", "Gamma"}
	results, err := client.DrugsAll(context.Background(), names)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(names) {
		t.Fatalf("got %d results, want %d", len(results), len(names))
	}
	for i, name := range names {
		if results[i].Name != name {
			t.Errorf("result %d = %s, want %s", i, results[i].Name, name)
		}
		if results[i].NCTID != "NCT-"+name {
			t.Errorf("result %d NCTID = %s", i, results[i].NCTID)
		}
	}
}

func TestDrugsAllPropagatesFailure(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query.titles") == "Bad" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(studiesResponse("NCT1", [2]string{"DRUG", "X"}))
	})

	client, err := New(context.Background(), srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	_, err = client.DrugsAll(context.Background(), []string{"Good", "Bad"})
	if err == nil || !strings.Contains(err.Error(), `"Bad"`) {
		t.Errorf("error = %v, want failure naming the bad trial", err)
	}
}
