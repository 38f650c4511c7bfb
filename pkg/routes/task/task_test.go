package task_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/internal/repositories/record"
	taskservice "github.com/Ramsey-B/fern/internal/services/task"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/routes/task"
)

type api struct {
	e      *echo.Echo
	stores *repositories.MemoryStores
}

func newAPI() *api {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	stores := repositories.NewMemoryStores()

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	service := taskservice.NewService(logger, stores.Tasks, stores.Companies, stores.People, events.Discard{})
	task.NewHandler(service).Register(e.Group("/api/v1/tasks"))

	return &api{e: e, stores: stores}
}

func (a *api) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestCreateTaskLinks(t *testing.T) {
	a := newAPI()
	acme := &models.Company{Name: "Acme Corp"}
	require.NoError(t, a.stores.Companies.Insert(context.Background(), acme))
	missing := "3f0c7d8e-8a7f-4a55-9b55-1d1f0b7a1c11"

	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{
			name:    "malformed company",
			body:    `{"title":"Call","related_company_id":"acme"}`,
			code:    http.StatusBadRequest,
			message: "Invalid related_company_id: acme",
		},
		{
			name:    "missing company",
			body:    `{"title":"Call","related_company_id":"` + missing + `"}`,
			code:    http.StatusNotFound,
			message: "Company not found: " + missing,
		},
		{
			name:    "type without id",
			body:    `{"title":"Call","related_to_type":"deal"}`,
			code:    http.StatusBadRequest,
			message: "related_to_type and related_to_id must be provided together",
		},
		{
			name:    "unknown type",
			body:    `{"title":"Call","related_to_type":"widget","related_to_id":"w-1"}`,
			code:    http.StatusBadRequest,
			message: "Invalid related_to_type: widget",
		},
		{
			name: "no links",
			body: `{"title":"Call"}`,
			code: http.StatusCreated,
		},
		{
			name: "empty string is no link",
			body: `{"title":"Call","related_company_id":""}`,
			code: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := a.do(t, http.MethodPost, "/api/v1/tasks", tt.body)
			assert.Equal(t, tt.code, code)
			if tt.message != "" {
				assert.Equal(t, tt.message, body["message"])
				return
			}
			assert.Nil(t, body["related_company_id"])
			assert.Nil(t, body["related_to_type"])
		})
	}

	n, err := a.stores.Tasks.Count(context.Background(), record.Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "rejected writes store nothing")
}

func TestUpdateTaskLinks(t *testing.T) {
	ctx := context.Background()
	a := newAPI()
	acme := &models.Company{Name: "Acme Corp"}
	require.NoError(t, a.stores.Companies.Insert(ctx, acme))
	alex := &models.Person{FirstName: "Alex", LastName: "Rivera", Email: "alex@acme.test"}
	require.NoError(t, a.stores.People.Insert(ctx, alex))

	code, created := a.do(t, http.MethodPost, "/api/v1/tasks",
		`{"title":"Call","related_company_id":"`+acme.ID+`","related_to_type":"deal","related_to_id":"d-1"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, acme.ID, created["related_company_id"])
	assert.Nil(t, created["related_person_id"])
	assert.Equal(t, "deal", created["related_to_type"])
	assert.Equal(t, "d-1", created["related_to_id"])
	path := "/api/v1/tasks/" + created["id"].(string)

	steps := []struct {
		name    string
		body    string
		code    int
		message string
		want    map[string]any
	}{
		{
			name: "omitted leaves links alone",
			body: `{"priority":"High"}`,
			code: http.StatusOK,
			want: map[string]any{"related_company_id": acme.ID, "related_to_type": "deal", "priority": "High"},
		},
		{
			name: "null leaves links alone",
			body: `{"related_company_id":null,"related_to_type":null}`,
			code: http.StatusOK,
			want: map[string]any{"related_company_id": acme.ID, "related_to_id": "d-1"},
		},
		{
			name: "set person",
			body: `{"related_person_id":"` + alex.ID + `"}`,
			code: http.StatusOK,
			want: map[string]any{"related_company_id": acme.ID, "related_person_id": alex.ID},
		},
		{
			name: "empty string clears company",
			body: `{"related_company_id":""}`,
			code: http.StatusOK,
			want: map[string]any{"related_company_id": nil, "related_person_id": alex.ID},
		},
		{
			name:    "bad person rejects whole update",
			body:    `{"title":"Renamed","related_person_id":"nope"}`,
			code:    http.StatusBadRequest,
			message: "Invalid related_person_id: nope",
		},
		{
			name:    "clearing half the pair",
			body:    `{"related_to_id":""}`,
			code:    http.StatusBadRequest,
			message: "related_to_type and related_to_id must be provided together",
		},
		{
			name: "move the pair",
			body: `{"related_to_type":"person","related_to_id":"p-9"}`,
			code: http.StatusOK,
			want: map[string]any{"related_to_type": "person", "related_to_id": "p-9"},
		},
		{
			name: "clear the pair",
			body: `{"related_to_type":"","related_to_id":""}`,
			code: http.StatusOK,
			want: map[string]any{"related_to_type": nil, "related_to_id": nil, "title": "Call"},
		},
	}

	for _, step := range steps {
		code, body := a.do(t, http.MethodPut, path, step.body)
		require.Equal(t, step.code, code, step.name)
		if step.message != "" {
			assert.Equal(t, step.message, body["message"], step.name)
			continue
		}
		for field, want := range step.want {
			assert.Equal(t, want, body[field], "%s: %s", step.name, field)
		}

		code, stored := a.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, body, stored, step.name)
	}
}

func TestListTasksValidatesType(t *testing.T) {
	a := newAPI()

	code, body := a.do(t, http.MethodGet, "/api/v1/tasks?related_to_type=widget", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid related_to_type: widget", body["message"])
}
