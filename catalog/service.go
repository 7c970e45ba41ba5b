// Package catalog manages the reference data the hierarchy points at: customers, employees and parts.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/sirupsen/logrus"
)

type Service struct {
	store  store.Store
	logger *logrus.Logger
	now    func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{
		store:  st,
		logger: config.GetLogger(),
		now:    time.Now,
	}
}

// WithClock is used by tests that assert on deleted-at timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) addHistory(ctx context.Context, tx store.Session, actionType string, refType string, refId int, before any, after any, description string) error {
	userId, userName := utils.Actor(ctx)
	return tx.Add(ctx, models.NewHistory(actionType, refId, refType, before, after, description, userId, userName))
}

// searchFilter builds the live-row filter for list endpoints; nameColumn is matched as a fragment.
func searchFilter(search *models.CatalogSearch, nameColumn string) (utils.Filter, error) {
	filter := models.LiveScope()
	if search == nil {
		return filter.OrderBy(nameColumn + " ASC").Take(config.SearchLimit), nil
	}
	if err := utils.ValidateStruct(search); err != nil {
		return filter, err
	}
	if name := strings.TrimSpace(search.Name); name != "" {
		filter = filter.And(nameColumn+" LIKE ?", "%"+name+"%")
	}
	if search.ActiveOnly {
		filter = filter.And("is_active = ?", true)
	}
	return filter.OrderBy(nameColumn + " ASC").Take(config.SearchLimit), nil
}

// normalizePhone validates against utils.CountryCode and returns the E.164 form; blank stays blank.
func normalizePhone(field string, phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	normalized, err := utils.NormalizePhoneNumber(phone, utils.CountryCode)
	if err != nil {
		return "", utils.NewValidationError("invalid phone number", map[string]string{field: "phone"})
	}
	return normalized, nil
}
