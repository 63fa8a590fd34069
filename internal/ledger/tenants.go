package ledger

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/pinehill-dev/pinehill/internal/model"
)

// CreateTenant inserts a new tenant. The unit must exist.
func (s *Store) CreateTenant(ctx context.Context, t *model.Tenant) error {
	if err := validation(model.ValidateTenant(*t)); err != nil {
		return err
	}
	if err := s.conn(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
		return fmt.Errorf("creating tenant %s: %w", t.TenantKey, translate(err))
	}
	return nil
}

// SaveTenant inserts a tenant or replaces the existing one with the same key.
func (s *Store) SaveTenant(ctx context.Context, t *model.Tenant) error {
	if err := validation(model.ValidateTenant(*t)); err != nil {
		return err
	}
	if err := s.upsert(ctx, t); err != nil {
		return fmt.Errorf("saving tenant %s: %w", t.TenantKey, translate(err))
	}
	return nil
}

// GetTenant returns the tenant with the given key.
func (s *Store) GetTenant(ctx context.Context, key string) (*model.Tenant, error) {
	var t model.Tenant
	if err := s.conn(ctx).First(&t, "tenant_key = ?", key).Error; err != nil {
		return nil, fmt.Errorf("getting tenant %s: %w", key, translate(err))
	}
	return &t, nil
}

// ListTenants returns every tenant ordered by unit.
func (s *Store) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := s.conn(ctx).Order("unit_id, tenant_key").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	return tenants, nil
}

// TenantsByUnit returns the tenants registered to a unit.
func (s *Store) TenantsByUnit(ctx context.Context, unitID string) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := s.conn(ctx).Where("unit_id = ?", unitID).Order("tenant_key").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("listing tenants of %s: %w", unitID, err)
	}
	return tenants, nil
}

// DeleteTenant removes a tenant. Its payments keep their unit and month but
// lose the tenant reference.
func (s *Store) DeleteTenant(ctx context.Context, key string) error {
	res := s.conn(ctx).Where("tenant_key = ?", key).Delete(&model.Tenant{})
	if res.Error != nil {
		return fmt.Errorf("deleting tenant %s: %w", key, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("deleting tenant %s: %w", key, ErrNotFound)
	}
	return nil
}
