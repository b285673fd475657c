package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/camstm/voucherhub/app/models"
	"github.com/camstm/voucherhub/internal/pkg/constants"
	"github.com/camstm/voucherhub/internal/pkg/middleware"
)

// RegisterHandlers attaches the v1 endpoints to the given router group.
// API key authentication is expected to be installed on the group already,
// role checks are attached per route here.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	master := middleware.RequireRole(models.ROLE_MASTER)
	operator := middleware.RequireRole(models.ROLE_MASTER, models.ROLE_ADMIN)

	router.Get(constants.PingRoute, s.GetPing)

	router.Post(constants.SyncSitesRoute, master, s.PostSyncSites)
	router.Post(constants.SiteSyncRoute, operator, s.PostSyncVouchers)
	router.Post(constants.SiteVouchersRoute, operator, s.PostIssueVouchers)
	router.Delete(constants.GroupExpiredRoute, operator, s.DeleteExpired)
	router.Get(constants.SiteReportRoute, s.GetSalesReport)

	router.Put(constants.OmadaConfigRoute, master, s.PutOmadaConfig)
	router.Get(constants.OmadaConfigTestURL, master, s.GetOmadaTest)
}
