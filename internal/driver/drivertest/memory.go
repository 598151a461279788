// Package drivertest provides an in-memory driver.GraphDriver that
// understands the statements in package driver, for tests that need a graph
// without a database.
package drivertest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/infoase/internal/driver"
)

type Node struct {
	Labels []string
	Props  map[string]interface{}
}

type Rel struct {
	Start, End *Node
	Type       string
	Props      map[string]interface{}
}

// Driver is an in-memory graph. Err, when set, fails every call. Queries
// and Runs record the statements received, in order.
type Driver struct {
	mu sync.Mutex

	Nodes   []*Node
	Rels    []*Rel
	Queries []string
	Runs    []string
	Err     error
	Closed  bool
}

var _ driver.GraphDriver = (*Driver)(nil)

func New() *Driver { return &Driver{} }

// Node returns the node with the given id property.
func (d *Driver) Node(id interface{}) *Node {
	for _, n := range d.Nodes {
		if n.Props["id"] == id {
			return n
		}
	}
	return nil
}

func Record(keys []string, values ...interface{}) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func eager(recs ...*neo4j.Record) neo4j.EagerResult {
	res := neo4j.EagerResult{Records: recs}
	if len(recs) > 0 {
		res.Keys = recs[0].Keys
	}
	return res
}

func copyProps(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// mergeProps follows SET +=: a nil value removes the key.
func mergeProps(dst, src map[string]interface{}) {
	for k, v := range src {
		if v == nil {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
}

func quoted(typ string) string {
	return "`" + strings.ReplaceAll(typ, "`", "``") + "`"
}

func (d *Driver) ExecuteQuery(_ context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Queries = append(d.Queries, query)
	if d.Err != nil {
		return neo4j.EagerResult{}, d.Err
	}

	switch {
	case query == driver.UpsertNodeQuery:
		props := params["properties"].(map[string]interface{})
		n := d.Node(params["id"])
		if n == nil {
			n = &Node{Props: copyProps(props)}
			n.Props["id"] = params["id"]
			n.Props["_created"] = true
			d.Nodes = append(d.Nodes, n)
		} else {
			mergeProps(n.Props, props)
			n.Props["_created"] = false
		}
		n.Labels = []string{driver.EntityLabel, params["type"].(string)}
		return eager(Record([]string{"created"}, n.Props["_created"])), nil

	case strings.Contains(query, "MERGE (a)-[r:"):
		typ := params["type"].(string)
		if !strings.Contains(query, quoted(typ)) {
			return neo4j.EagerResult{}, fmt.Errorf("relationship type %q not quoted in query", typ)
		}
		a, b := d.Node(params["start_id"]), d.Node(params["end_id"])
		if a == nil || b == nil {
			return eager(), nil
		}
		props := params["properties"].(map[string]interface{})
		for _, r := range d.Rels {
			if r.Start == a && r.End == b && r.Type == typ {
				mergeProps(r.Props, props)
				r.Props["_created"] = false
				return eager(Record([]string{"created"}, false)), nil
			}
		}
		r := &Rel{Start: a, End: b, Type: typ, Props: copyProps(props)}
		r.Props["_created"] = true
		d.Rels = append(d.Rels, r)
		return eager(Record([]string{"created"}, true)), nil

	case query == driver.EndpointProbeQuery:
		return eager(Record([]string{"has_start", "has_end"},
			d.Node(params["start_id"]) != nil, d.Node(params["end_id"]) != nil)), nil

	case query == driver.ExportNodesQuery:
		var recs []*neo4j.Record
		for _, n := range d.Nodes {
			if n.Props["id"] == nil {
				continue
			}
			labels := make([]interface{}, len(n.Labels))
			for i, l := range n.Labels {
				labels[i] = l
			}
			recs = append(recs, Record([]string{"id", "labels", "properties"}, n.Props["id"], labels, copyProps(n.Props)))
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].Values[0].(string) < recs[j].Values[0].(string) })
		return eager(recs...), nil

	case query == driver.ExportRelationshipsQuery:
		rels := append([]*Rel(nil), d.Rels...)
		sort.SliceStable(rels, func(i, j int) bool {
			a, b := rels[i], rels[j]
			if ai, bi := fmt.Sprint(a.Start.Props["id"]), fmt.Sprint(b.Start.Props["id"]); ai != bi {
				return ai < bi
			}
			if a.Type != b.Type {
				return a.Type < b.Type
			}
			return fmt.Sprint(a.End.Props["id"]) < fmt.Sprint(b.End.Props["id"])
		})
		var recs []*neo4j.Record
		for _, r := range rels {
			recs = append(recs, Record([]string{"start_id", "end_id", "type", "properties"},
				r.Start.Props["id"], r.End.Props["id"], r.Type, copyProps(r.Props)))
		}
		return eager(recs...), nil

	case query == driver.CountQuery:
		return eager(Record([]string{"nodes", "relationships"}, int64(len(d.Nodes)), int64(len(d.Rels)))), nil
	}
	return neo4j.EagerResult{}, fmt.Errorf("drivertest: unexpected query %q", query)
}

func (d *Driver) Run(_ context.Context, query string, _ map[string]interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Runs = append(d.Runs, query)
	if d.Err != nil {
		return d.Err
	}
	switch query {
	case driver.CleanupQueries[0]:
		d.Rels = nil
	case driver.CleanupQueries[1]:
		for _, n := range d.Nodes {
			n.Props = map[string]interface{}{}
		}
	case driver.CleanupQueries[2]:
		d.Nodes = nil
		d.Rels = nil
	default:
		return fmt.Errorf("drivertest: unexpected statement %q", query)
	}
	return nil
}

func (d *Driver) VerifyConnectivity(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Err
}

func (d *Driver) BuildIndices(context.Context) error { return nil }

func (d *Driver) Close(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
	return nil
}
