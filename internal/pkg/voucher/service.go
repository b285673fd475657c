package voucher

import (
	"context"

	"gorm.io/gorm"

	"github.com/camstm/voucherhub/internal/pkg/omada"
)

// ControllerAPI is the slice of the controller client the voucher service
// consumes. *omada.Client satisfies it.
type ControllerAPI interface {
	ListSites(ctx context.Context, page, pageSize int) (*omada.SitePage, error)
	CreateVoucherGroup(ctx context.Context, siteID string, req *omada.VoucherGroupCreateRequest) (string, error)
	GetVoucherGroups(ctx context.Context, siteID string, page, pageSize int, filters *omada.VoucherGroupFilters) (*omada.VoucherGroupPage, error)
	GetVoucherGroupDetail(ctx context.Context, siteID, groupID string, page, pageSize int) (*omada.VoucherGroupDetail, error)
	DeleteExpiredVouchers(ctx context.Context, siteID, groupID string) error
}

// Service holds the site sync, voucher reconciliation and issuance
// operations. It is invoked synchronously from the triggering request and
// safe to invoke repeatedly; calls to the controller are sequential because
// the controller enforces per-site concurrency limits.
type Service struct {
	repo       Repository
	controller ControllerAPI
}

// NewService creates a voucher service from an injected repository and
// controller client.
func NewService(repo Repository, controller ControllerAPI) *Service {
	return &Service{repo: repo, controller: controller}
}

// NewServiceFromDB creates a voucher service from a GORM DB handle and a
// controller client.
func NewServiceFromDB(db *gorm.DB, controller ControllerAPI) *Service {
	return NewService(NewRepository(db), controller)
}
