package app

import (
	"context"
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/internal/services/company"
	"github.com/Ramsey-B/fern/internal/services/deal"
	"github.com/Ramsey-B/fern/internal/services/person"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Fixtures is the seed file layout. People and deals name their company and
// contact by fixture key, never by id.
type Fixtures struct {
	Companies []CompanyFixture `yaml:"companies"`
	People    []PersonFixture  `yaml:"people"`
	Deals     []DealFixture    `yaml:"deals"`
}

type CompanyFixture struct {
	Key                         string `yaml:"key"`
	models.CreateCompanyRequest `yaml:",inline"`
}

type PersonFixture struct {
	Key                        string `yaml:"key"`
	Company                    string `yaml:"company"`
	models.CreatePersonRequest `yaml:",inline"`
}

type DealFixture struct {
	Company                  string `yaml:"company"`
	Contact                  string `yaml:"contact"`
	models.CreateDealRequest `yaml:",inline"`
}

type SeedResult struct {
	Companies int `json:"companies"`
	People    int `json:"people"`
	Deals     int `json:"deals"`
}

func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &f, nil
}

func keyRef(keys map[string]string, kind, key string) (reference.Optional, error) {
	if key == "" {
		return reference.Unset(), nil
	}
	id, ok := keys[key]
	if !ok {
		return reference.Unset(), fmt.Errorf("unknown %s fixture key %q", kind, key)
	}
	return reference.Set(id), nil
}

// Seed creates the fixtures through the services so every link is checked
// the same way an API write is. With a database the whole file is one
// transaction.
func Seed(ctx context.Context, logger ectologger.Logger, stores *repositories.Stores, db database.DB, f *Fixtures) (result SeedResult, err error) {
	if db != nil {
		var tx database.Tx
		ctx, tx, err = db.GetTx(ctx, nil)
		if err != nil {
			return result, err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback(ctx)
				return
			}
			err = tx.Commit(ctx)
		}()
	}

	publisher := events.Discard{}
	companies := company.NewService(logger, stores.Companies, publisher)
	people := person.NewService(logger, stores.People, stores.Companies, publisher)
	deals := deal.NewService(logger, stores.Deals, stores.Companies, stores.People, publisher)

	companyIDs := map[string]string{}
	for i, c := range f.Companies {
		req, err := utils.Validate(c.CreateCompanyRequest)
		if err != nil {
			return result, fmt.Errorf("companies[%d]: %w", i, err)
		}
		out, err := companies.Create(ctx, req)
		if err != nil {
			return result, fmt.Errorf("companies[%d]: %w", i, err)
		}
		if c.Key != "" {
			companyIDs[c.Key] = out["id"].(string)
		}
		result.Companies++
	}

	personIDs := map[string]string{}
	for i, p := range f.People {
		req, err := utils.Validate(p.CreatePersonRequest)
		if err != nil {
			return result, fmt.Errorf("people[%d]: %w", i, err)
		}
		if req.CompanyID, err = keyRef(companyIDs, "company", p.Company); err != nil {
			return result, fmt.Errorf("people[%d]: %w", i, err)
		}
		out, err := people.Create(ctx, req)
		if err != nil {
			return result, fmt.Errorf("people[%d]: %w", i, err)
		}
		if p.Key != "" {
			personIDs[p.Key] = out["id"].(string)
		}
		result.People++
	}

	for i, d := range f.Deals {
		req, err := utils.Validate(d.CreateDealRequest)
		if err != nil {
			return result, fmt.Errorf("deals[%d]: %w", i, err)
		}
		if req.CompanyID, err = keyRef(companyIDs, "company", d.Company); err != nil {
			return result, fmt.Errorf("deals[%d]: %w", i, err)
		}
		if req.ContactID, err = keyRef(personIDs, "person", d.Contact); err != nil {
			return result, fmt.Errorf("deals[%d]: %w", i, err)
		}
		if _, err := deals.Create(ctx, req); err != nil {
			return result, fmt.Errorf("deals[%d]: %w", i, err)
		}
		result.Deals++
	}

	logger.WithContext(ctx).WithFields(map[string]any{
		"companies": result.Companies,
		"people":    result.People,
		"deals":     result.Deals,
	}).Info("seeded fixtures")
	return result, nil
}
