package services

import (
	"context"

	"storefront/internal/domain"
)

// OwnerResolver returns the id of the user owning the resource named by id.
type OwnerResolver func(ctx context.Context, id string) (string, error)

// OwnerPolicy allows admins everything, any authenticated caller the
// untargeted (create/list) operations, and otherwise only the owner of the
// targeted resource.
type OwnerPolicy struct {
	Resource string
	Resolve  OwnerResolver
}

func NewOwnerPolicy(resource string, resolve OwnerResolver) *OwnerPolicy {
	return &OwnerPolicy{Resource: resource, Resolve: resolve}
}

type orderOwners interface {
	OwnerOf(ctx context.Context, id string) (string, error)
}

// NewOrderPolicy resolves ownership through the order's user id.
func NewOrderPolicy(orders orderOwners) *OwnerPolicy {
	return NewOwnerPolicy("order", orders.OwnerOf)
}

// NewSelfPolicy treats a user record as owned by that same user.
func NewSelfPolicy() *OwnerPolicy {
	return NewOwnerPolicy("user", func(_ context.Context, id string) (string, error) { return id, nil })
}

func (p *OwnerPolicy) Authorize(ctx context.Context, who *domain.Identity, targetID string) bool {
	if who == nil || who.ID == "" {
		return false
	}
	if who.IsAdmin() {
		return true
	}
	if targetID == "" {
		return true
	}
	if p.Resolve == nil {
		return false
	}
	owner, err := p.Resolve(ctx, targetID)
	if err != nil {
		return false
	}
	return owner != "" && owner == who.ID
}
