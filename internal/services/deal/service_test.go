package deal_test

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/internal/services/deal"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
)

type fixture struct {
	stores   *repositories.MemoryStores
	recorder *events.Recorder
	service  *deal.Service
}

func newFixture() *fixture {
	stores := repositories.NewMemoryStores()
	recorder := &events.Recorder{}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return &fixture{
		stores:   stores,
		recorder: recorder,
		service:  deal.NewService(logger, stores.Deals, stores.Companies, stores.People, recorder),
	}
}

func (f *fixture) company(t *testing.T, name string) *models.Company {
	t.Helper()
	c := &models.Company{Name: name}
	require.NoError(t, f.stores.Companies.Insert(context.Background(), c))
	return c
}

func (f *fixture) person(t *testing.T, email string) *models.Person {
	t.Helper()
	p := &models.Person{FirstName: "Alex", LastName: "Rivera", Email: email}
	require.NoError(t, f.stores.People.Insert(context.Background(), p))
	return p
}

func TestCreateDealWithCompany(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	acme := f.company(t, "Acme Corp")

	out, err := f.service.Create(ctx, models.CreateDealRequest{
		Title:     "Big Deal",
		CompanyID: reference.Set(acme.ID),
	})
	require.NoError(t, err)

	assert.Equal(t, acme.ID, out["company_id"])
	assert.Nil(t, out["contact_id"])
	assert.Equal(t, "Big Deal", out["title"])
	assert.Equal(t, models.DefaultDealCurrency, out["currency"])
	assert.Equal(t, models.DefaultDealStage, out["stage"])
	assert.Equal(t, int64(models.DefaultDealProbability), out["probability"])
	assert.NotContains(t, out, "company")

	require.Len(t, f.recorder.Changes, 1)
	change := f.recorder.Changes[0]
	assert.Equal(t, events.Created, change.Action)
	require.Len(t, change.Changes, 1)
	assert.Equal(t, "company_id", change.Changes[0].Field)
}

func TestCreateDealRejectsBadLinks(t *testing.T) {
	ctx := context.Background()
	missing := reference.NewKey().String()

	tests := []struct {
		name    string
		req     models.CreateDealRequest
		message string
		status  int
	}{
		{
			name:    "malformed company",
			req:     models.CreateDealRequest{Title: "X", CompanyID: reference.Set("not-an-id")},
			message: "Invalid company_id: not-an-id",
			status:  400,
		},
		{
			name:    "missing company",
			req:     models.CreateDealRequest{Title: "X", CompanyID: reference.Set(missing)},
			message: "Company not found: " + missing,
			status:  404,
		},
		{
			name:    "missing contact",
			req:     models.CreateDealRequest{Title: "X", ContactID: reference.Set(missing)},
			message: "Contact not found: " + missing,
			status:  404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.service.Create(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())

			coder, ok := err.(interface{ StatusCode() int })
			require.True(t, ok)
			assert.Equal(t, tt.status, coder.StatusCode())

			count, err := f.stores.Deals.Count(ctx, record.Query{})
			require.NoError(t, err)
			assert.Zero(t, count)
			assert.Empty(t, f.recorder.Changes)
		})
	}
}

func TestMalformedLinkIsReportedBeforeMissingOne(t *testing.T) {
	f := newFixture()
	_, err := f.service.Create(context.Background(), models.CreateDealRequest{
		Title:     "X",
		CompanyID: reference.Set(reference.NewKey().String()),
		ContactID: reference.Set("bad"),
	})
	var invalid *reference.InvalidReferenceFormatError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "contact_id", invalid.Field)
}

func TestUpdateDealTriState(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	acme := f.company(t, "Acme Corp")
	alex := f.person(t, "alex@acme.com")

	created, err := f.service.Create(ctx, models.CreateDealRequest{
		Title:     "Big Deal",
		CompanyID: reference.Set(acme.ID),
		ContactID: reference.Set(alex.ID),
	})
	require.NoError(t, err)
	id := created["id"].(string)

	// absent leaves both links as they are
	title := "Bigger Deal"
	out, err := f.service.Update(ctx, id, models.UpdateDealRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, acme.ID, out["company_id"])
	assert.Equal(t, alex.ID, out["contact_id"])
	assert.Equal(t, "Bigger Deal", out["title"])

	// empty string clears
	out, err = f.service.Update(ctx, id, models.UpdateDealRequest{CompanyID: reference.Set("")})
	require.NoError(t, err)
	assert.Nil(t, out["company_id"])
	assert.Equal(t, alex.ID, out["contact_id"])

	last := f.recorder.Changes[len(f.recorder.Changes)-1]
	require.Len(t, last.Changes, 1)
	assert.Equal(t, acme.ID, *last.Changes[0].From)
	assert.Nil(t, last.Changes[0].To)

	// a value sets again
	out, err = f.service.Update(ctx, id, models.UpdateDealRequest{CompanyID: reference.Set(acme.ID)})
	require.NoError(t, err)
	assert.Equal(t, acme.ID, out["company_id"])
}

func TestFailedUpdateLeavesDealUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	acme := f.company(t, "Acme Corp")

	created, err := f.service.Create(ctx, models.CreateDealRequest{Title: "Big Deal", CompanyID: reference.Set(acme.ID)})
	require.NoError(t, err)
	id := created["id"].(string)

	title := "Renamed"
	_, err = f.service.Update(ctx, id, models.UpdateDealRequest{
		Title:     &title,
		CompanyID: reference.Set(""),
		ContactID: reference.Set(reference.NewKey().String()),
	})
	var missing *reference.ReferenceTargetNotFoundError
	require.ErrorAs(t, err, &missing)

	got, err := f.service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Big Deal", got["title"])
	assert.Equal(t, acme.ID, got["company_id"])
}

func TestDanglingCompanyAfterDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	acme := f.company(t, "Acme Corp")

	created, err := f.service.Create(ctx, models.CreateDealRequest{Title: "Big Deal", CompanyID: reference.Set(acme.ID)})
	require.NoError(t, err)
	id := created["id"].(string)

	deleted, err := f.stores.Companies.Delete(ctx, acme.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	single, err := f.service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, acme.ID, single["company_id"])

	list, err := f.service.List(ctx, models.ListDealsRequest{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, single, list[0])

	// a write that leaves the dangling link alone still succeeds
	title := "Still Big"
	out, err := f.service.Update(ctx, id, models.UpdateDealRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, acme.ID, out["company_id"])

	// naming the deleted company again does not
	_, err = f.service.Update(ctx, id, models.UpdateDealRequest{CompanyID: reference.Set(acme.ID)})
	var missing *reference.ReferenceTargetNotFoundError
	require.ErrorAs(t, err, &missing)
}

func TestListUsesBoundedQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	companies := []*models.Company{f.company(t, "Acme"), f.company(t, "Globex")}
	contact := f.person(t, "alex@acme.com")
	for i := 0; i < 20; i++ {
		_, err := f.service.Create(ctx, models.CreateDealRequest{
			Title:     "Deal",
			CompanyID: reference.Set(companies[i%2].ID),
			ContactID: reference.Set(contact.ID),
		})
		require.NoError(t, err)
	}

	f.stores.ResetQueries()
	list, err := f.service.List(ctx, models.ListDealsRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 20)

	assert.Equal(t, 1, f.stores.Deals.Queries())
	assert.Equal(t, 1, f.stores.Companies.Queries())
	assert.Equal(t, 1, f.stores.People.Queries())
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	acme := f.company(t, "Acme")
	globex := f.company(t, "Globex")

	for _, c := range []*models.Company{acme, acme, globex} {
		_, err := f.service.Create(ctx, models.CreateDealRequest{Title: "Deal", CompanyID: reference.Set(c.ID)})
		require.NoError(t, err)
	}

	list, err := f.service.List(ctx, models.ListDealsRequest{CompanyID: acme.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.service.List(ctx, models.ListDealsRequest{ContactID: "nope"})
	var invalid *reference.InvalidReferenceFormatError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Invalid contact_id: nope", err.Error())
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		out, err := f.service.Create(ctx, models.CreateDealRequest{Title: title})
		require.NoError(t, err)
		ids = append(ids, out["id"].(string))
	}

	list, err := f.service.List(ctx, models.ListDealsRequest{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0]["id"])
	assert.Equal(t, ids[0], list[2]["id"])
}

func TestDealPathErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.service.Get(ctx, "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid deal id: nope", err.Error())

	_, err = f.service.Get(ctx, reference.NewKey().String())
	var notFound *reference.ParentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Deal not found", err.Error())

	_, err = f.service.Delete(ctx, reference.NewKey().String())
	require.ErrorAs(t, err, &notFound)
}

func TestDeleteDeal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	out, err := f.service.Create(ctx, models.CreateDealRequest{Title: "Big Deal"})
	require.NoError(t, err)

	resp, err := f.service.Delete(ctx, out["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "Deal deleted successfully", resp.Message)

	last := f.recorder.Changes[len(f.recorder.Changes)-1]
	assert.Equal(t, events.Deleted, last.Action)
}
