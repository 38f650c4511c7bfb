package task_test

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/internal/services/task"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
)

func newService() (*task.Service, *repositories.MemoryStores, *events.Recorder) {
	stores := repositories.NewMemoryStores()
	recorder := &events.Recorder{}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return task.NewService(logger, stores.Tasks, stores.Companies, stores.People, recorder), stores, recorder
}

func TestCreateTaskDefaults(t *testing.T) {
	service, _, _ := newService()

	out, err := service.Create(context.Background(), models.CreateTaskRequest{Title: "Call Alex"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTaskPriority, out["priority"])
	assert.Equal(t, models.DefaultTaskStatus, out["status"])
	assert.Nil(t, out["related_to_type"])
	assert.Nil(t, out["related_to_id"])
	assert.Nil(t, out["related_company_id"])
	assert.Nil(t, out["related_person_id"])
}

func TestCreateTaskPolymorphic(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.CreateTaskRequest
		wantErr string
	}{
		{
			name: "pair accepted without lookup",
			req: models.CreateTaskRequest{
				Title:         "Follow up",
				RelatedToType: reference.Set("deal"),
				RelatedToID:   reference.Set("anything-at-all"),
			},
		},
		{
			name:    "type only",
			req:     models.CreateTaskRequest{Title: "Follow up", RelatedToType: reference.Set("deal")},
			wantErr: "related_to_type and related_to_id must be provided together",
		},
		{
			name:    "id only",
			req:     models.CreateTaskRequest{Title: "Follow up", RelatedToID: reference.Set("x")},
			wantErr: "related_to_type and related_to_id must be provided together",
		},
		{
			name: "unknown type",
			req: models.CreateTaskRequest{
				Title:         "Follow up",
				RelatedToType: reference.Set("invoice"),
				RelatedToID:   reference.Set("x"),
			},
			wantErr: "Invalid related_to_type: invoice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, stores, _ := newService()
			out, err := service.Create(ctx, tt.req)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				count, err := stores.Tasks.Count(ctx, record.Query{})
				require.NoError(t, err)
				assert.Zero(t, count)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "deal", out["related_to_type"])
			assert.Equal(t, "anything-at-all", out["related_to_id"])
		})
	}
}

func TestUpdateTaskPolymorphicPair(t *testing.T) {
	ctx := context.Background()
	service, _, recorder := newService()

	created, err := service.Create(ctx, models.CreateTaskRequest{
		Title:         "Follow up",
		RelatedToType: reference.Set("lead"),
		RelatedToID:   reference.Set("lead-1"),
	})
	require.NoError(t, err)
	id := created["id"].(string)

	// changing one half keeps the other
	out, err := service.Update(ctx, id, models.UpdateTaskRequest{RelatedToID: reference.Set("lead-2")})
	require.NoError(t, err)
	assert.Equal(t, "lead", out["related_to_type"])
	assert.Equal(t, "lead-2", out["related_to_id"])

	// clearing one half leaves an incomplete pair
	_, err = service.Update(ctx, id, models.UpdateTaskRequest{RelatedToType: reference.Set("")})
	var incomplete *reference.IncompletePolymorphicReferenceError
	require.ErrorAs(t, err, &incomplete)

	// clearing both is allowed for tasks
	out, err = service.Update(ctx, id, models.UpdateTaskRequest{RelatedToType: reference.Set(""), RelatedToID: reference.Set("")})
	require.NoError(t, err)
	assert.Nil(t, out["related_to_type"])
	assert.Nil(t, out["related_to_id"])

	last := recorder.Changes[len(recorder.Changes)-1]
	assert.True(t, last.Related.IsZero())
}

func TestTaskTypedLinks(t *testing.T) {
	ctx := context.Background()
	service, stores, _ := newService()

	acme := &models.Company{Name: "Acme Corp"}
	require.NoError(t, stores.Companies.Insert(ctx, acme))
	alex := &models.Person{FirstName: "Alex", LastName: "Rivera", Email: "alex@acme.com"}
	require.NoError(t, stores.People.Insert(ctx, alex))

	out, err := service.Create(ctx, models.CreateTaskRequest{
		Title:            "Kickoff",
		RelatedCompanyID: reference.Set(acme.ID),
		RelatedPersonID:  reference.Set(alex.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, acme.ID, out["related_company_id"])
	assert.Equal(t, alex.ID, out["related_person_id"])

	missing := reference.NewKey().String()
	_, err = service.Update(ctx, out["id"].(string), models.UpdateTaskRequest{
		RelatedToType:   reference.Set("company"),
		RelatedToID:     reference.Set(acme.ID),
		RelatedPersonID: reference.Set(missing),
	})
	assert.EqualError(t, err, "Person not found: "+missing)

	got, err := service.Get(ctx, out["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, out, got)
}

func TestListTasks(t *testing.T) {
	ctx := context.Background()
	service, stores, _ := newService()

	done := "Done"
	_, err := service.Create(ctx, models.CreateTaskRequest{Title: "a", RelatedToType: reference.Set("deal"), RelatedToID: reference.Set("d1")})
	require.NoError(t, err)
	_, err = service.Create(ctx, models.CreateTaskRequest{Title: "b", RelatedToType: reference.Set("deal"), RelatedToID: reference.Set("d2"), TaskFields: models.TaskFields{Status: &done}})
	require.NoError(t, err)
	_, err = service.Create(ctx, models.CreateTaskRequest{Title: "c"})
	require.NoError(t, err)

	list, err := service.List(ctx, models.ListTasksRequest{RelatedToType: "deal"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0]["title"])

	list, err = service.List(ctx, models.ListTasksRequest{RelatedToType: "deal", Status: "Done"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = service.List(ctx, models.ListTasksRequest{RelatedToType: "invoice"})
	var unknown *reference.UnknownEntityTypeError
	require.ErrorAs(t, err, &unknown)

	stores.ResetQueries()
	_, err = service.List(ctx, models.ListTasksRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, stores.Tasks.Queries())
	assert.Zero(t, stores.Companies.Queries())
	assert.Zero(t, stores.People.Queries())
}
