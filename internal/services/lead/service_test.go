package lead

import (
	"context"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
)

func newTestService() (*Service, *repositories.MemoryStores, *events.Recorder) {
	stores := repositories.NewMemoryStores()
	recorder := &events.Recorder{}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewService(logger, stores.Leads, stores.LeadThreads, recorder, nil), stores, recorder
}

func createLead(t *testing.T, s *Service) string {
	t.Helper()
	out, err := s.Create(context.Background(), models.CreateLeadRequest{
		FirstName: "Jordan",
		LastName:  "Lee",
		Email:     "Jordan@Example.com",
	})
	require.NoError(t, err)
	return out["id"].(string)
}

func TestCreateLeadDefaults(t *testing.T) {
	s, _, _ := newTestService()

	out, err := s.Create(context.Background(), models.CreateLeadRequest{FirstName: "Jordan", LastName: "Lee", Email: "jordan@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLeadStatus, out["status"])
	assert.Equal(t, models.DefaultLeadSource, out["source"])
}

func TestSyncMailIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _, recorder := newTestService()
	id := createLead(t, s)

	resp, err := s.SyncMail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ThreadsSynced)
	assert.Equal(t, "Successfully synced 2 new threads.", resp.Message)

	resp, err = s.SyncMail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ThreadsSynced)
	assert.Equal(t, "Successfully synced 0 new threads.", resp.Message)

	threads, err := s.MailThreads(ctx, id)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	for _, th := range threads {
		assert.Equal(t, id, th["lead_id"])
		assert.Equal(t, models.DefaultThreadStatus, th["status"])
	}

	threadEvents := 0
	for _, c := range recorder.Changes {
		if c.Kind == ThreadKind {
			threadEvents++
			require.Len(t, c.Links, 1)
			assert.Equal(t, id, *c.Links[0].Key)
			require.Len(t, c.Changes, 1)
			assert.Equal(t, LeadField, c.Changes[0].Field)
			assert.Nil(t, c.Changes[0].From)
		}
	}
	assert.Equal(t, 2, threadEvents)
}

func TestConcurrentSyncCreatesEachThreadOnce(t *testing.T) {
	ctx := context.Background()
	s, stores, _ := newTestService()
	id := createLead(t, s)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := s.SyncMail(ctx, id)
			assert.NoError(t, err)
			results[i] = resp.ThreadsSynced
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range results {
		total += n
	}
	assert.Equal(t, len(mockThreads), total)

	count, err := stores.LeadThreads.Count(ctx, threadsOf(id))
	require.NoError(t, err)
	assert.Equal(t, len(mockThreads), count)
}

func TestSyncMailUnknownLead(t *testing.T) {
	s, _, _ := newTestService()

	_, err := s.SyncMail(context.Background(), reference.NewKey().String())
	assert.EqualError(t, err, "Lead not found")

	_, err = s.MailThreads(context.Background(), "lead-1")
	assert.EqualError(t, err, "Invalid lead id: lead-1")
}

func TestInsertThreadChecksLead(t *testing.T) {
	ctx := context.Background()
	s, stores, _ := newTestService()

	gone := &models.Lead{}
	gone.SetID(reference.NewKey().String())
	_, err := s.insertThread(ctx, gone, mockThreads[0])
	var missing *reference.ReferenceTargetNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Lead not found: "+gone.ID, err.Error())

	count, err := stores.LeadThreads.Count(ctx, record.Query{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListLeadsByStatus(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService()

	id := createLead(t, s)
	createLead2 := func() {
		_, err := s.Create(ctx, models.CreateLeadRequest{FirstName: "Sam", LastName: "Ortiz", Email: "sam@example.com"})
		require.NoError(t, err)
	}
	createLead2()

	qualified := "Qualified"
	_, err := s.Update(ctx, id, models.UpdateLeadRequest{LeadFields: models.LeadFields{Status: &qualified}})
	require.NoError(t, err)

	list, err := s.List(ctx, models.ListLeadsRequest{Status: "Qualified"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "jordan@example.com", list[0]["email"])
}

func TestLocalLockerSerializesKey(t *testing.T) {
	locker := newLocalLocker()
	ctx := context.Background()

	var mu sync.Mutex
	active, peak := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(ctx, "k", 0, func(context.Context) error {
				mu.Lock()
				active++
				peak = max(peak, active)
				mu.Unlock()

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
	assert.Empty(t, locker.locks)
}

func threadsOf(id string) record.Query {
	return record.Query{}.Where(LeadField, id)
}
