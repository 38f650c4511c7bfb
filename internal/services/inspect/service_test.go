package inspect_test

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/internal/services/inspect"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
)

func setup(t *testing.T) (*inspect.Service, *repositories.MemoryStores) {
	t.Helper()
	stores := repositories.NewMemoryStores()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	deals := inspect.NewCollection(stores.Deals, "Deal", func(d models.Deal) string { return d.ID },
		map[string]reference.KeySet{"company_id": stores.Companies, "contact_id": stores.People})
	companies := inspect.NewCollection(stores.Companies, "Company", func(c models.Company) string { return c.ID }, nil)

	return inspect.NewService(logger, deals, companies), stores
}

func TestLinksReportsDangling(t *testing.T) {
	ctx := context.Background()
	service, stores := setup(t)

	acme := &models.Company{Name: "Acme Corp"}
	require.NoError(t, stores.Companies.Insert(ctx, acme))

	live := &models.Deal{Title: "Live", Company: reference.Unresolved[models.Company](reference.Key(acme.ID))}
	require.NoError(t, stores.Deals.Insert(ctx, live))

	gone := reference.NewKey()
	dangling := &models.Deal{Title: "Big Deal", Company: reference.Unresolved[models.Company](gone)}
	require.NoError(t, stores.Deals.Insert(ctx, dangling))

	bare := &models.Deal{Title: "Bare"}
	require.NoError(t, stores.Deals.Insert(ctx, bare))

	stores.ResetQueries()
	report, err := service.Links(ctx, "deals", models.ListRequest{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Dangling["company_id"])
	assert.Equal(t, 0, report.Dangling["contact_id"])
	require.Len(t, report.Records, 3)

	byID := map[string]inspect.RecordLinks{}
	for _, r := range report.Records {
		byID[r.ID] = r
	}
	assert.False(t, byID[live.ID].Links["company_id"].Dangling)
	assert.True(t, byID[dangling.ID].Links["company_id"].Dangling)
	assert.Equal(t, gone.String(), *byID[dangling.ID].Links["company_id"].Key)
	assert.Nil(t, byID[bare.ID].Links["company_id"].Key)

	// count, ids, one LinkValues per link, one target confirmation for company
	assert.Equal(t, 4, stores.Deals.Queries())
	assert.Equal(t, 1, stores.Companies.Queries())
	assert.Zero(t, stores.People.Queries())
}

func TestRecordReportsRefStates(t *testing.T) {
	ctx := context.Background()
	service, stores := setup(t)

	gone := reference.NewKey()
	d := &models.Deal{Title: "Big Deal", Company: reference.Unresolved[models.Company](gone)}
	require.NoError(t, stores.Deals.Insert(ctx, d))

	report, err := service.Record(ctx, "deals", d.ID)
	require.NoError(t, err)

	assert.Equal(t, "Big Deal", report.Row["title"])
	assert.Equal(t, inspect.StateDangling, report.Refs["company_id"].State)
	assert.Equal(t, "companies", report.Refs["company_id"].Target)
	assert.Equal(t, inspect.StateAbsent, report.Refs["contact_id"].State)
}

func TestInspectErrors(t *testing.T) {
	ctx := context.Background()
	service, _ := setup(t)

	_, err := service.Links(ctx, "invoices", models.ListRequest{})
	assert.Error(t, err)

	_, err = service.Record(ctx, "deals", "x")
	assert.EqualError(t, err, "Invalid deal id: x")

	_, err = service.Record(ctx, "deals", reference.NewKey().String())
	assert.EqualError(t, err, "Deal not found")

	assert.Equal(t, []string{"companies", "deals"}, service.Collections())
}
