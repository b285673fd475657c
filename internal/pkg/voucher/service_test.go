package voucher

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/camstm/voucherhub/app/models"
	"github.com/camstm/voucherhub/internal/pkg/omada"
)

// fakeRepository is an in-memory Repository. Transaction snapshots the state
// and restores it when fn fails, mirroring a rollback.
type fakeRepository struct {
	sites  []models.Site
	plans  []models.VoucherPlan
	users  []models.User
	groups []models.VoucherGroup

	// site ID -> admin user IDs
	adminAssignments map[uint][]uint

	nextSiteID  uint
	nextPlanID  uint
	nextGroupID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		adminAssignments: map[uint][]uint{},
		nextSiteID:       1,
		nextPlanID:       1,
		nextGroupID:      1,
	}
}

func (r *fakeRepository) snapshot() *fakeRepository {
	copy := &fakeRepository{
		sites:            append([]models.Site(nil), r.sites...),
		plans:            append([]models.VoucherPlan(nil), r.plans...),
		users:            append([]models.User(nil), r.users...),
		groups:           append([]models.VoucherGroup(nil), r.groups...),
		adminAssignments: map[uint][]uint{},
		nextSiteID:       r.nextSiteID,
		nextPlanID:       r.nextPlanID,
		nextGroupID:      r.nextGroupID,
	}
	for k, v := range r.adminAssignments {
		copy.adminAssignments[k] = append([]uint(nil), v...)
	}
	return copy
}

func (r *fakeRepository) Transaction(fn func(Repository) error) error {
	saved := r.snapshot()
	if err := fn(r); err != nil {
		*r = *saved
		return err
	}
	return nil
}

func (r *fakeRepository) SiteByID(id uint) (*models.Site, error) {
	for i := range r.sites {
		if r.sites[i].ID == id {
			site := r.sites[i]
			return &site, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) SiteByExternalID(externalID string) (*models.Site, error) {
	for i := range r.sites {
		if r.sites[i].SiteID == externalID {
			site := r.sites[i]
			return &site, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) CreateSite(site *models.Site) error {
	site.ID = r.nextSiteID
	r.nextSiteID++
	r.sites = append(r.sites, *site)
	return nil
}

func (r *fakeRepository) UpdateSite(site *models.Site) error {
	for i := range r.sites {
		if r.sites[i].ID == site.ID {
			r.sites[i] = *site
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepository) PlanByID(id uint) (*models.VoucherPlan, error) {
	for i := range r.plans {
		if r.plans[i].ID == id {
			plan := r.plans[i]
			return &plan, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) PlansBySite(siteID uint) ([]models.VoucherPlan, error) {
	var plans []models.VoucherPlan
	for i := range r.plans {
		if r.plans[i].SiteID == siteID {
			plans = append(plans, r.plans[i])
		}
	}
	return plans, nil
}

func (r *fakeRepository) CreatePlan(plan *models.VoucherPlan) error {
	plan.ID = r.nextPlanID
	r.nextPlanID++
	r.plans = append(r.plans, *plan)
	return nil
}

func (r *fakeRepository) UserByID(id uint) (*models.User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			user := r.users[i]
			return &user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) SiteAdmins(siteID uint) ([]models.User, error) {
	var users []models.User
	for _, adminID := range r.adminAssignments[siteID] {
		if user, err := r.UserByID(adminID); err == nil {
			users = append(users, *user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeRepository) UsersByRole(role string) ([]models.User, error) {
	var users []models.User
	for i := range r.users {
		if r.users[i].Role == role {
			users = append(users, r.users[i])
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeRepository) AnyUser() (*models.User, error) {
	if len(r.users) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	lowest := r.users[0]
	for _, u := range r.users[1:] {
		if u.ID < lowest.ID {
			lowest = u
		}
	}
	return &lowest, nil
}

func (r *fakeRepository) GroupByID(id uint) (*models.VoucherGroup, error) {
	for i := range r.groups {
		if r.groups[i].ID == id {
			group := r.groups[i]
			return &group, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) GroupByRemoteID(remoteID string) (*models.VoucherGroup, error) {
	for i := range r.groups {
		if r.groups[i].OmadaGroupID == remoteID {
			group := r.groups[i]
			return &group, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) CreateGroup(group *models.VoucherGroup) error {
	group.ID = r.nextGroupID
	r.nextGroupID++
	r.groups = append(r.groups, *group)
	return nil
}

func (r *fakeRepository) CreateGroupIfAbsent(group *models.VoucherGroup) (bool, error) {
	for i := range r.groups {
		if r.groups[i].OmadaGroupID == group.OmadaGroupID {
			return false, nil
		}
	}
	return true, r.CreateGroup(group)
}

func (r *fakeRepository) UpdateGroup(group *models.VoucherGroup) error {
	for i := range r.groups {
		if r.groups[i].ID == group.ID {
			r.groups[i] = *group
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeController scripts the controller side of a sync run.
type fakeController struct {
	sitePages []*omada.SitePage
	// index of the ListSites call that should fail, -1 for never
	siteFailAt int
	siteCalls  int

	groupPages map[string][]*omada.VoucherGroupPage
	groupErr   error

	details   map[string][]omada.VoucherRecord
	detailErr map[string]error

	createdGroups []omada.VoucherGroupCreateRequest
	createID      string
	createErr     error

	deletedGroups []string
	deleteErr     error
}

func newFakeController() *fakeController {
	return &fakeController{
		siteFailAt: -1,
		groupPages: map[string][]*omada.VoucherGroupPage{},
		details:    map[string][]omada.VoucherRecord{},
		detailErr:  map[string]error{},
	}
}

func (f *fakeController) ListSites(ctx context.Context, page, pageSize int) (*omada.SitePage, error) {
	call := f.siteCalls
	f.siteCalls++
	if call == f.siteFailAt {
		return nil, &omada.TransportError{Op: "GET sites", Err: errors.New("connection reset")}
	}
	if call < len(f.sitePages) {
		return f.sitePages[call], nil
	}
	return &omada.SitePage{CurrentPage: page}, nil
}

func (f *fakeController) CreateVoucherGroup(ctx context.Context, siteID string, req *omada.VoucherGroupCreateRequest) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createdGroups = append(f.createdGroups, *req)
	return f.createID, nil
}

func (f *fakeController) GetVoucherGroups(ctx context.Context, siteID string, page, pageSize int, filters *omada.VoucherGroupFilters) (*omada.VoucherGroupPage, error) {
	if f.groupErr != nil {
		return nil, f.groupErr
	}
	pages := f.groupPages[siteID]
	if page-1 < len(pages) {
		return pages[page-1], nil
	}
	return &omada.VoucherGroupPage{CurrentPage: page}, nil
}

func (f *fakeController) GetVoucherGroupDetail(ctx context.Context, siteID, groupID string, page, pageSize int) (*omada.VoucherGroupDetail, error) {
	if err := f.detailErr[groupID]; err != nil {
		return nil, err
	}
	records := f.details[groupID]
	return &omada.VoucherGroupDetail{
		ID:         groupID,
		TotalCount: len(records),
		Data:       records,
	}, nil
}

func (f *fakeController) DeleteExpiredVouchers(ctx context.Context, siteID, groupID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedGroups = append(f.deletedGroups, groupID)
	return nil
}
