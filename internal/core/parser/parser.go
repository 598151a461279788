// Package parser turns the model's "Nodes: ... Relationships: ..." list
// notation into typed graph entities.
//
// Parsing is two-phase: a permissive regex finds candidate rows, then a
// strict regex pulls the fields out of each row. Brackets are never
// balanced; nested braces in a property block end at the first "}]".
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/agenthands/infoase/internal/core/common"
	"github.com/agenthands/infoase/internal/core/model"
)

const (
	nodesMarker         = "Nodes:"
	relationshipsMarker = "Relationships:"

	// localizedNameKey is renamed to "name" when a node has no name.
	localizedNameKey = "naam"
)

var (
	rowPattern          = regexp.MustCompile(`\[\s*['"].+?['"]\s*,\s*['"].+?['"]\s*,\s*\{.*?\}\]`)
	nodePattern         = regexp.MustCompile(`^\[['"]([^'"]+)['"],\s*['"]([^'"]+)['"],\s*(\{.*?\})\]`)
	relationshipPattern = regexp.MustCompile(`\[['"]([^'"]+)['"],\s*['"]([^'"]+)['"],\s*['"]([^'"]+)['"],\s*(\{[^}]*\})`)
)

// Result is the outcome of one parse. Diagnostics hold the non-fatal
// problems: defaulted property blocks and dropped relationships.
type Result struct {
	Nodes         []model.Node         `json:"nodes"`
	Relationships []model.Relationship `json:"relationships"`
	Diagnostics   model.Diagnostics    `json:"diagnostics,omitempty"`
}

// Parser is stateless; the zero value is ready to use.
type Parser struct {
	// RepairProperties runs an unparsable property block through a JSON
	// repairer before falling back to defaults.
	RepairProperties bool
}

// Parse parses text with the default parser.
func Parse(text string) (Result, error) {
	return Parser{}.Parse(text)
}

// Parse converts one raw model response into nodes and relationships. It
// fails with a *MalformedResponseError when the sections are missing or a
// row yields no fields; every other problem becomes a diagnostic.
func (p Parser) Parse(text string) (Result, error) {
	nodesText, relsText, err := splitSections(text)
	if err != nil {
		return Result{}, err
	}

	var diags model.Diagnostics

	nodes, order, err := p.parseNodes(rowPattern.FindAllString(nodesText, -1), &diags)
	if err != nil {
		return Result{}, err
	}

	rels, err := p.parseRelationships(rowPattern.FindAllString(relsText, -1), nodes, &diags)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Nodes:         make([]model.Node, 0, len(order)),
		Relationships: rels,
		Diagnostics:   diags,
	}
	for _, id := range order {
		res.Nodes = append(res.Nodes, nodes[id])
	}
	return res, nil
}

func splitSections(text string) (string, string, error) {
	nodeParts := strings.Split(text, nodesMarker)
	relParts := strings.Split(text, relationshipsMarker)
	if len(nodeParts) < 2 || len(relParts) < 2 {
		return "", "", malformed("could not find the Nodes and Relationships sections in the output")
	}

	nodesText := strings.Split(nodeParts[1], relationshipsMarker)[0]
	relsText := relParts[1]
	// Whitespace after a marker is an empty list, nothing at all is not.
	if nodesText == "" || relsText == "" {
		return "", "", malformed("the Nodes or Relationships section is empty")
	}
	return nodesText, relsText, nil
}

// parseNodes returns the nodes keyed by id plus the first-seen id order. A
// later row with the same id overwrites the earlier node but keeps its
// position.
func (p Parser) parseNodes(rows []string, diags *model.Diagnostics) (map[string]model.Node, []string, error) {
	nodes := make(map[string]model.Node, len(rows))
	var order []string

	for _, row := range rows {
		m := nodePattern.FindStringSubmatch(row)
		if m == nil {
			return nil, nil, malformedRow("node", row)
		}

		name := m[1]
		props, ok := p.parseProperties(m[3], row, "node", diags)
		if !ok {
			props = model.Properties{model.NameKey: name}
		}
		if _, has := props[model.NameKey]; !has {
			if alias, hasAlias := props[localizedNameKey]; hasAlias {
				props[model.NameKey] = alias
				delete(props, localizedNameKey)
			} else {
				props[model.NameKey] = name
			}
		}

		node := model.Node{
			ID:         model.NormalizeID(name),
			Type:       model.TitleCase(m[2]),
			Properties: props,
		}
		if _, seen := nodes[node.ID]; !seen {
			order = append(order, node.ID)
		}
		nodes[node.ID] = node
	}
	return nodes, order, nil
}

func (p Parser) parseRelationships(rows []string, nodes map[string]model.Node, diags *model.Diagnostics) ([]model.Relationship, error) {
	var rels []model.Relationship

	for _, row := range rows {
		m := relationshipPattern.FindStringSubmatch(row)
		if m == nil {
			return nil, malformedRow("relationship", row)
		}

		sourceID := model.NormalizeID(m[1])
		source, ok := nodes[sourceID]
		if !ok {
			diags.Add(model.DiagUnknownSource, sourceID,
				"relationship source %q not found in nodes %v", sourceID, knownIDs(nodes))
			continue
		}

		targetID := model.NormalizeID(m[3])
		target, ok := nodes[targetID]
		if !ok {
			diags.Add(model.DiagUnknownTarget, targetID,
				"relationship target %q not found in nodes %v", targetID, knownIDs(nodes))
			continue
		}

		props, ok := p.parseProperties(m[4], row, "relationship", diags)
		if !ok {
			props = model.Properties{}
		}

		rels = append(rels, model.Relationship{
			Source:     source,
			Target:     target,
			Type:       m[2],
			Properties: props,
		})
	}
	return rels, nil
}

// parseProperties decodes a brace block after turning single quotes into
// double quotes. It reports false, with a diagnostic, when the block cannot
// be read.
func (p Parser) parseProperties(block, row, kind string, diags *model.Diagnostics) (model.Properties, bool) {
	block = strings.ReplaceAll(block, "'", `"`)

	obj, err := common.DecodeObject(block)
	if err == nil {
		return model.Properties(obj), true
	}

	if p.RepairProperties {
		if repaired, rerr := jsonrepair.JSONRepair(block); rerr == nil {
			if obj, derr := common.DecodeObject(repaired); derr == nil {
				diags.Add(model.DiagRepairedProperties, row,
					"repaired %s properties: %v", kind, err)
				return model.Properties(obj), true
			}
		}
	}

	diags.Add(model.DiagInvalidProperties, row, "error parsing %s properties: %v", kind, err)
	return nil, false
}

func knownIDs(nodes map[string]model.Node) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func malformedRow(kind, row string) error {
	return malformed(fmt.Sprintf("could not parse %s %s", kind, row))
}
