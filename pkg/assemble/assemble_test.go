package assemble

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/reference"
)

type base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type company struct{}

type person struct {
	base
	FirstName string                 `json:"first_name"`
	Email     string                 `json:"email"`
	Phone     *string                `json:"phone"`
	JobTitle  *string                `json:"job_title"`
	Primary   bool                   `json:"is_primary_contact"`
	Score     int                    `json:"score"`
	Value     float64                `json:"value"`
	ClosedAt  *time.Time             `json:"closed_at"`
	Company   reference.Ref[company] `json:"-"`
	internal  string
}

func strPtr(s string) *string { return &s }

func TestAssemble(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	p := person{
		base:      base{ID: "p1", CreatedAt: created},
		FirstName: "  Alex ",
		Email:     "Alex@Acme.com",
		Phone:     strPtr(""),
		JobTitle:  strPtr("CTO"),
		Primary:   true,
		Score:     20,
		Value:     1500.5,
		Company:   reference.Unresolved[company]("c1"),
		internal:  "hidden",
	}
	rules := Rules{
		Names:     []string{"first_name"},
		Normalize: map[string][]string{"email": {normalizers.NameEmail}},
	}

	rec := Assemble(&p, map[string]*string{"company_id": strPtr("c1"), "contact_id": nil}, rules)

	assert.Equal(t, "p1", rec["id"])
	assert.Equal(t, "2024-03-01T05:00:00.000Z", rec["created_at"])
	assert.Equal(t, "Alex", rec["first_name"])
	assert.Equal(t, "alex@acme.com", rec["email"])
	assert.Nil(t, rec["phone"], "empty optional strings collapse to null")
	assert.Equal(t, "CTO", rec["job_title"])
	assert.Equal(t, true, rec["is_primary_contact"])
	assert.Equal(t, int64(20), rec["score"])
	assert.Equal(t, 1500.5, rec["value"])
	assert.Nil(t, rec["closed_at"])
	assert.Equal(t, "c1", rec["company_id"])
	assert.Contains(t, rec, "contact_id")
	assert.Nil(t, rec["contact_id"])
	assert.NotContains(t, rec, "internal")
	assert.NotContains(t, rec, "Company")

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"company_id":"c1"`)
}

func TestAssembleNamesKeepInnerSpacing(t *testing.T) {
	type org struct {
		Name  string `json:"name"`
		Label string `json:"label"`
	}
	rules := Rules{
		Names:     []string{"name", "label"},
		Normalize: map[string][]string{"label": {normalizers.NameSquash}},
	}

	rec := Assemble(org{Name: "  Acme   Corp  ", Label: "  Acme   Corp  "}, nil, rules)

	assert.Equal(t, "Acme   Corp", rec["name"])
	assert.Equal(t, "Acme Corp", rec["label"], "squashing is opt-in")
}

func TestAssembleOnlyEmitsScalars(t *testing.T) {
	rec := Assemble(person{Company: reference.Unresolved[company]("c1")}, nil, Rules{})
	for field, v := range rec {
		switch v.(type) {
		case nil, string, bool, int64, uint64, float64:
		default:
			t.Errorf("field %s has non-scalar type %T", field, v)
		}
	}
}

func TestAll(t *testing.T) {
	people := []person{{base: base{ID: "a"}}, {base: base{ID: "b"}}}
	keys := map[string]*string{"a": strPtr("c1"), "b": nil}

	recs := All(people, func(p person) map[string]*string {
		return map[string]*string{"company_id": keys[p.ID]}
	}, Rules{})

	require.Len(t, recs, 2)
	assert.Equal(t, "c1", recs[0]["company_id"])
	assert.Nil(t, recs[1]["company_id"])
}
