package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
)

func (s *Service) CreateEmployee(ctx context.Context, input *models.NewEmployee) (*models.Employee, error) {
	if input == nil {
		return nil, utils.NewValidationError("employee document is required", nil)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	phone, err := normalizePhone("phone", input.Phone)
	if err != nil {
		return nil, err
	}
	employee := &models.Employee{
		EmployeeName: strings.TrimSpace(input.EmployeeName),
		Role:         input.Role,
		Phone:        phone,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		IsActive:     input.IsActive,
		Lifecycle:    models.ActiveLifecycle(),
	}
	if employee.Role == "" {
		employee.Role = models.EmployeeRoleTechnician
	}
	if employee.IsActive == nil {
		employee.IsActive = utils.NewTrue()
	}

	err = store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		if employee.Email != "" {
			if err := utils.ValidateUnique[models.Employee](ctx, tx, "email", employee.Email, 0, models.LiveScope()); err != nil {
				return err
			}
		}
		if err := tx.Add(ctx, employee); err != nil {
			return err
		}
		return s.addHistory(ctx, tx, models.ActionTypeCreate, "Employee", employee.ID, nil, employee,
			fmt.Sprintf("Created employee %s", employee.EmployeeName))
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *Service) GetEmployee(ctx context.Context, id int) (*models.Employee, error) {
	return store.GetLive[models.Employee](ctx, s.store, "Employee", id)
}

func (s *Service) ListEmployees(ctx context.Context, search *models.CatalogSearch) ([]models.Employee, error) {
	filter, err := searchFilter(search, "employee_name")
	if err != nil {
		return nil, err
	}
	results, err := store.Find[models.Employee](ctx, s.store, filter)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.Employee{}
	}
	return results, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id int, patch *models.EmployeePatch) (*models.Employee, error) {
	if patch == nil {
		return nil, utils.NewValidationError("employee document is required", nil)
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, err
	}
	phone, err := normalizePhone("phone", patch.Phone)
	if err != nil {
		return nil, err
	}

	var result *models.Employee
	err = store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		employee, err := store.GetLive[models.Employee](ctx, tx, "Employee", id)
		if err != nil {
			return err
		}
		before := *employee
		employee.EmployeeName = utils.FirstNonBlank(strings.TrimSpace(patch.EmployeeName), employee.EmployeeName)
		employee.Phone = utils.FirstNonBlank(phone, employee.Phone)
		employee.Email = utils.FirstNonBlank(strings.ToLower(strings.TrimSpace(patch.Email)), employee.Email)
		if patch.Role != "" {
			employee.Role = patch.Role
		}
		if patch.IsActive != nil {
			employee.IsActive = patch.IsActive
		}
		if employee.Email != "" {
			if err := utils.ValidateUnique[models.Employee](ctx, tx, "email", employee.Email, employee.ID, models.LiveScope()); err != nil {
				return err
			}
		}
		if err := tx.Update(ctx, employee); err != nil {
			return err
		}
		result = employee
		return s.addHistory(ctx, tx, models.ActionTypeUpdate, "Employee", employee.ID, before, employee,
			fmt.Sprintf("Updated employee %s", employee.EmployeeName))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id int) error {
	return store.InTransaction(ctx, s.store, func(tx store.Tx) error {
		employee, err := store.GetLive[models.Employee](ctx, tx, "Employee", id)
		if err != nil {
			return err
		}
		before := *employee
		employee.MarkDeleted(s.now())
		if err := tx.Update(ctx, employee); err != nil {
			return err
		}
		return s.addHistory(ctx, tx, models.ActionTypeDelete, "Employee", employee.ID, before, nil,
			fmt.Sprintf("Deleted employee %s", employee.EmployeeName))
	})
}
