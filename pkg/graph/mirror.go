package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/reference"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// RelatedTo is the relationship type of polymorphic references.
const RelatedTo = "RELATED_TO"

var entityLabels = map[reference.EntityType]string{
	reference.EntityCompany: "Company",
	reference.EntityDeal:    "Deal",
	reference.EntityLead:    "Lead",
	reference.EntityPerson:  "Person",
	reference.EntityTask:    "Task",
	reference.EntityProduct: "Product",
}

// Label returns the node label of an entity type.
func Label(t reference.EntityType) (string, bool) {
	label, ok := entityLabels[t]
	return label, ok
}

// Labels lists every node label the mirror writes, sorted.
func Labels() []string {
	labels := []string{"Note", "LeadThread"}
	for _, label := range entityLabels {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

type statement struct {
	cypher string
	params map[string]any
}

// Mirror keeps one node per record and one edge per stored link. Edges to
// records that do not exist create placeholder nodes, and a deleted record
// that is still linked to becomes one, so dangling links stay visible.
type Mirror struct {
	client *Client
	logger ectologger.Logger
}

func NewMirror(client *Client, logger ectologger.Logger) *Mirror {
	return &Mirror{
		client: client,
		logger: logger,
	}
}

// relationshipType turns a link field into an edge type: company_id -> COMPANY.
func relationshipType(field string) string {
	return sanitizeLabel(strings.ToUpper(strings.TrimSuffix(field, "_id")))
}

func sanitizeLabel(label string) string {
	var b strings.Builder
	for _, c := range label {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return "Record"
	}
	return b.String()
}

func statements(change events.Change) []statement {
	label := sanitizeLabel(change.Kind)
	if change.Action == events.Deleted {
		params := map[string]any{"id": change.ID}
		return []statement{
			{cypher: fmt.Sprintf(`MATCH (n:%s {id: $id})-[r]->() DELETE r`, label), params: params},
			{cypher: fmt.Sprintf(`MATCH (n:%s {id: $id}) REMOVE n.collection`, label), params: params},
			{cypher: fmt.Sprintf(`
				MATCH (n:%s {id: $id})
				OPTIONAL MATCH ()-[r]->(n)
				WITH n, count(r) AS incoming
				WHERE incoming = 0
				DELETE n`, label), params: params},
		}
	}

	out := []statement{{
		cypher: fmt.Sprintf(`MERGE (n:%s {id: $id}) SET n.collection = $collection`, label),
		params: map[string]any{"id": change.ID, "collection": change.Collection},
	}}

	for _, link := range change.Links {
		relType := relationshipType(link.Field)
		out = append(out, statement{
			cypher: fmt.Sprintf(`MATCH (n:%s {id: $id})-[r:%s]->() DELETE r`, label, relType),
			params: map[string]any{"id": change.ID},
		})
		if link.Key == nil {
			continue
		}
		out = append(out, statement{
			cypher: fmt.Sprintf(`
				MATCH (n:%s {id: $id})
				MERGE (t:%s {id: $target_id})
				MERGE (n)-[r:%s]->(t)
				SET r.field = $field`, label, sanitizeLabel(link.TargetKind), relType),
			params: map[string]any{"id": change.ID, "target_id": *link.Key, "field": link.Field},
		})
	}

	if targetLabel, ok := entityLabels[change.Related.Type]; ok || change.Action == events.Updated {
		out = append(out, statement{
			cypher: fmt.Sprintf(`MATCH (n:%s {id: $id})-[r:%s]->() DELETE r`, label, RelatedTo),
			params: map[string]any{"id": change.ID},
		})
		if ok {
			out = append(out, statement{
				cypher: fmt.Sprintf(`
					MATCH (n:%s {id: $id})
					MERGE (t:%s {id: $target_id})
					MERGE (n)-[:%s]->(t)`, label, targetLabel, RelatedTo),
				params: map[string]any{"id": change.ID, "target_id": change.Related.ID},
			})
		}
	}
	return out
}

// Publish applies a committed write to the graph.
func (m *Mirror) Publish(ctx context.Context, change events.Change) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Mirror.Publish")
	defer span.End()

	stmts := statements(change)
	_, err := m.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, s := range stmts {
			result, err := tx.Run(ctx, s.cypher, s.params)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		metrics.RecordGraphSync("error")
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"collection": change.Collection,
			"id":         change.ID,
			"action":     change.Action,
		}).Error("Failed to mirror record links")
		return err
	}
	metrics.RecordGraphSync("success")
	return nil
}

// Neighbor is one record linked to or from another.
type Neighbor struct {
	Relationship string `json:"relationship"`
	Direction    string `json:"direction"`
	Kind         string `json:"kind"`
	ID           string `json:"id"`
	// Placeholder is true for a node created by a link whose target was never
	// written through this service.
	Placeholder bool `json:"placeholder"`
}

// Neighbors lists records one edge away from (kind, id).
func (m *Mirror) Neighbors(ctx context.Context, kind, id string) ([]Neighbor, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Mirror.Neighbors")
	defer span.End()

	cypher := fmt.Sprintf(`
		MATCH (n:%s {id: $id})-[r]-(m)
		RETURN type(r) AS rel, startNode(r) = n AS outgoing, labels(m) AS labels, m.id AS id, m.collection IS NULL AS placeholder
		ORDER BY rel, id`, sanitizeLabel(kind))

	res, err := m.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}

		neighbors := []Neighbor{}
		for result.Next(ctx) {
			record := result.Record()
			n := Neighbor{Direction: "in"}
			if v, ok := record.Get("rel"); ok {
				n.Relationship, _ = v.(string)
			}
			if v, ok := record.Get("outgoing"); ok {
				if out, _ := v.(bool); out {
					n.Direction = "out"
				}
			}
			if v, ok := record.Get("labels"); ok {
				if labels, _ := v.([]any); len(labels) > 0 {
					n.Kind, _ = labels[0].(string)
				}
			}
			if v, ok := record.Get("id"); ok {
				n.ID, _ = v.(string)
			}
			if v, ok := record.Get("placeholder"); ok {
				n.Placeholder, _ = v.(bool)
			}
			neighbors = append(neighbors, n)
		}
		return neighbors, result.Err()
	})
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Error("Failed to read graph neighbors")
		return nil, err
	}
	return res.([]Neighbor), nil
}
