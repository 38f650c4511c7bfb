package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestValidate(t *testing.T) {
	_, err := Validate(models.CreateCompanyRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Name': rule 'required'")

	size := "huge"
	_, err = Validate(models.CreateCompanyRequest{Name: "Acme", CompanyFields: models.CompanyFields{CompanySize: &size}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 'oneof'")

	_, err = Validate(models.CreateCompanyRequest{Name: "Acme"})
	assert.NoError(t, err)
}

func TestBindRequest(t *testing.T) {
	e := echo.New()

	body := `{"first_name":"Alex","last_name":"Rivera","email":"alex@acme.com","company_id":""}`
	req := httptest.NewRequest(http.MethodPost, "/people", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	got, err := BindRequest[models.CreatePersonRequest](c)
	require.NoError(t, err)
	assert.Equal(t, "Alex", got.FirstName)
	assert.True(t, got.CompanyID.IsClear())

	req = httptest.NewRequest(http.MethodPost, "/people", strings.NewReader(`{"first_name":"Alex"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c = e.NewContext(req, httptest.NewRecorder())

	_, err = BindRequest[models.CreatePersonRequest](c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBindRequestQuery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/deals?skip=5&limit=10&company_id=abc", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	got, err := BindRequest[models.ListDealsRequest](c)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Skip)
	assert.Equal(t, 10, got.Limit)
	assert.Equal(t, "abc", got.CompanyID)
}

func TestBindRequestMalformedBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/deals", strings.NewReader(`{"title":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	_, err := BindRequest[models.CreateDealRequest](c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	assert.Equal(t, "Invalid request: boom", bindMessage(echo.NewHTTPError(http.StatusBadRequest, "bad").SetInternal(errors.New("boom"))))
	assert.Equal(t, "Invalid request: bad", bindMessage(echo.NewHTTPError(http.StatusBadRequest, "bad")))
}
