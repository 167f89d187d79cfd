// Package catalogue holds the two-level data model over discovered
// connections: a sorted, deduplicated list of server display names, each
// mapped to the identifiers discovered for it.
package catalogue

import (
	"context"
	"fmt"
	"sort"

	"xpipe-browser/internal/xpipe"
)

// Catalogue is the in-memory collection of discovered targets.
//
// Names is ordered for display; after Finalize it is sorted and carries each
// display name once. Resources maps a display name to every identifier
// discovered for it, in discovery order: the query-step identifier always,
// plus any nested container name reported by the info step. The first entry
// is the server's primary identifier.
type Catalogue struct {
	Names     []string
	Resources map[string][]string
}

// Add appends a display name and its identifiers. Resources are only ever
// appended to during a fetch pass, never replaced.
func (c *Catalogue) Add(name string, ids ...string) {
	if name == "" || len(ids) == 0 {
		return
	}
	if c.Resources == nil {
		c.Resources = map[string][]string{}
	}
	c.Names = append(c.Names, name)
	c.Resources[name] = append(c.Resources[name], ids...)
}

// Finalize sorts and deduplicates Names. Resources keeps all collected
// identifiers per name regardless of the dedup.
func (c *Catalogue) Finalize() {
	sort.Strings(c.Names)
	out := c.Names[:0]
	var prev string
	for i, n := range c.Names {
		if i == 0 || n != prev {
			out = append(out, n)
		}
		prev = n
	}
	c.Names = out
}

// Len returns the number of unique display names.
func (c Catalogue) Len() int { return len(c.Names) }

// Primary returns the first identifier discovered for a name, or "" when the
// name is unknown.
func (c *Catalogue) Primary(name string) string {
	ids := c.Resources[name]
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// Build folds query identifiers and their info entries into a catalogue.
//
// Folding rule: for each (info, identifier) pair in the order received, the
// display name is the first element of the info's name list (entries with an
// empty name list are skipped); the query-step identifier is always recorded,
// and a non-empty nested container name is recorded as an additional
// identifier under the same server name. Pairs beyond the shorter of the two
// sequences are ignored.
func Build(ids []string, infos []xpipe.ConnectionInfo) Catalogue {
	var cat Catalogue
	n := len(ids)
	if len(infos) < n {
		n = len(infos)
	}
	for i := 0; i < n; i++ {
		info := infos[i]
		if len(info.Name) == 0 || info.Name[0] == "" {
			continue
		}
		name := info.Name[0]
		cat.Add(name, ids[i])
		if info.RawData != nil && info.RawData.ContainerName != "" {
			cat.Add(name, info.RawData.ContainerName)
		}
	}
	cat.Finalize()
	return cat
}

// Service is the slice of the daemon API the fetcher depends on.
type Service interface {
	QueryConnections(ctx context.Context, f xpipe.Filter) ([]string, error)
	ConnectionInfos(ctx context.Context, ids []string) ([]xpipe.ConnectionInfo, error)
}

// Fetcher runs the two-step query/info protocol against the daemon.
type Fetcher struct {
	client Service
}

// NewFetcher creates a fetcher over the given daemon client.
func NewFetcher(client Service) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch queries matching identifiers and folds their info entries into a
// catalogue. On any error the zero catalogue is returned and the caller
// keeps whatever it had before.
func (f *Fetcher) Fetch(ctx context.Context, filter xpipe.Filter) (Catalogue, error) {
	ids, err := f.client.QueryConnections(ctx, filter)
	if err != nil {
		return Catalogue{}, err
	}
	infos, err := f.client.ConnectionInfos(ctx, ids)
	if err != nil {
		return Catalogue{}, err
	}
	if len(infos) != len(ids) {
		return Catalogue{}, &xpipe.FetchError{
			Step: "info",
			Err:  errCountMismatch(len(ids), len(infos)),
		}
	}
	return Build(ids, infos), nil
}

type countMismatch struct{ want, got int }

func errCountMismatch(want, got int) error { return &countMismatch{want: want, got: got} }

func (e *countMismatch) Error() string {
	return fmt.Sprintf("expected %d info entries, got %d", e.want, e.got)
}
