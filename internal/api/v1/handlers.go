package apiv1

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/camstm/voucherhub/app/models"
	"github.com/camstm/voucherhub/app/repository"
	"github.com/camstm/voucherhub/internal/pkg/database"
	"github.com/camstm/voucherhub/internal/pkg/omada"
	"github.com/camstm/voucherhub/internal/pkg/statistics"
	"github.com/camstm/voucherhub/internal/pkg/usercontext"
	"github.com/camstm/voucherhub/internal/pkg/voucher"
)

// APIServer bundles the services behind the JSON API.
type APIServer struct {
	svc        *voucher.Service
	tokens     *omada.TokenManager
	controller *omada.Client
}

// NewAPIServer creates a new API server instance
func NewAPIServer(svc *voucher.Service, tokens *omada.TokenManager, controller *omada.Client) *APIServer {
	return &APIServer{svc: svc, tokens: tokens, controller: controller}
}

// Pong is the ping response body
type Pong struct {
	Ping string `json:"ping"`
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// PostSyncSites pulls the site list from the controller into the local database.
func (s *APIServer) PostSyncSites(c *fiber.Ctx) error {
	count, err := s.svc.SyncSites(c.UserContext())
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"synced": count})
}

// PostSyncVouchers reconciles all voucher groups of one site with the controller.
func (s *APIServer) PostSyncVouchers(c *fiber.Ctx) error {
	siteID, err := c.ParamsInt("id")
	if err != nil || siteID <= 0 {
		return badRequest(c, "invalid site id")
	}
	if err := s.requireSiteAccess(c, uint(siteID)); err != nil {
		return err
	}

	if err := s.svc.SyncVoucherStatuses(c.UserContext(), uint(siteID)); err != nil {
		return apiError(c, err)
	}
	statistics.InvalidateSite(uint(siteID))
	return c.JSON(fiber.Map{"status": "ok"})
}

type issueRequest struct {
	PlanID      uint   `json:"plan_id"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
}

// PostIssueVouchers generates a new voucher group on the controller for a site.
func (s *APIServer) PostIssueVouchers(c *fiber.Ctx) error {
	siteID, err := c.ParamsInt("id")
	if err != nil || siteID <= 0 {
		return badRequest(c, "invalid site id")
	}
	if err := s.requireSiteAccess(c, uint(siteID)); err != nil {
		return err
	}

	var req issueRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.PlanID == 0 {
		return badRequest(c, "plan_id required")
	}
	if req.Quantity <= 0 {
		return badRequest(c, "quantity must be positive")
	}

	group, err := s.svc.IssueVouchers(c.UserContext(), voucher.IssueInput{
		SiteID:      uint(siteID),
		PlanID:      req.PlanID,
		RequestedBy: usercontext.GetUserID(c),
		Quantity:    req.Quantity,
		Description: req.Description,
	})
	if err != nil {
		return apiError(c, err)
	}
	statistics.InvalidateSite(uint(siteID))
	return c.Status(fiber.StatusCreated).JSON(group)
}

// DeleteExpired removes the expired vouchers of a group on the controller
// and refreshes the local counters.
func (s *APIServer) DeleteExpired(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil || groupID <= 0 {
		return badRequest(c, "invalid voucher group id")
	}

	if err := s.svc.DeleteExpired(c.UserContext(), uint(groupID)); err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// GetSalesReport returns per-plan and per-vendor sales for a site. The
// optional start and end query parameters (YYYY-MM-DD) bound the report by
// group creation date.
func (s *APIServer) GetSalesReport(c *fiber.Ctx) error {
	siteID, err := c.ParamsInt("id")
	if err != nil || siteID <= 0 {
		return badRequest(c, "invalid site id")
	}
	if err := s.requireSiteAccess(c, uint(siteID)); err != nil {
		return err
	}

	start, err := parseDateQuery(c, "start", false)
	if err != nil {
		return badRequest(c, "invalid start date, expected YYYY-MM-DD")
	}
	end, err := parseDateQuery(c, "end", true)
	if err != nil {
		return badRequest(c, "invalid end date, expected YYYY-MM-DD")
	}

	report, err := statistics.CachedSalesReport(database.GetDB(), uint(siteID), start, end)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(report)
}

type omadaConfigRequest struct {
	ControllerURL string `json:"controller_url"`
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	OmadacID      string `json:"omadac_id"`
}

// PutOmadaConfig replaces the controller credentials and drops any tokens
// issued for the previous credential set.
func (s *APIServer) PutOmadaConfig(c *fiber.Ctx) error {
	var req omadaConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ControllerURL == "" || req.ClientID == "" || req.ClientSecret == "" || req.OmadacID == "" {
		return badRequest(c, "controller_url, client_id, client_secret and omadac_id are required")
	}

	if err := s.tokens.ReplaceCredentials(req.ControllerURL, req.ClientID, req.ClientSecret, req.OmadacID); err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// GetOmadaTest probes the controller with the stored credentials.
func (s *APIServer) GetOmadaTest(c *fiber.Ctx) error {
	if _, err := s.controller.ListSites(c.UserContext(), 1, 1); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"reachable": false,
			"message":   omada.OperatorMessage(err),
		})
	}
	return c.JSON(fiber.Map{"reachable": true})
}

// requireSiteAccess verifies the caller may operate on the given site. Master
// users see every site, admins only their assigned sites, vendors only the
// site they sell for. Returns nil after access is granted, otherwise writes
// the response and returns its error.
func (s *APIServer) requireSiteAccess(c *fiber.Ctx, siteID uint) error {
	ctx := usercontext.GetUserContext(c)
	switch ctx.Role {
	case models.ROLE_MASTER:
		return nil
	case models.ROLE_ADMIN:
		sites, err := repository.GetGlobalFactory().GetSiteRepository().SitesForAdmin(ctx.UserID)
		if err != nil {
			log.Printf("admin site lookup failed for user %d: %v", ctx.UserID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Site access check failed"})
		}
		for _, site := range sites {
			if site.ID == siteID {
				return nil
			}
		}
	case models.ROLE_VENDOR:
		site, err := repository.GetGlobalFactory().GetSiteRepository().SiteForVendor(ctx.UserID)
		if err == nil && site.ID == siteID {
			return nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("vendor site lookup failed for user %d: %v", ctx.UserID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Site access check failed"})
		}
	}
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "No access to this site"})
}

func parseDateQuery(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": msg})
}

// apiError maps service errors onto HTTP responses. Controller-side failures
// become 502 with an operator readable message, data lookups that found
// nothing become 404.
func apiError(c *fiber.Ctx, err error) error {
	var apiErr *omada.ApiError
	var transportErr *omada.TransportError
	var authErr *omada.AuthError

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Record not found"})
	case errors.Is(err, omada.ErrNotConfigured):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "not_configured", "message": omada.OperatorMessage(err)})
	case errors.As(err, &apiErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "controller_rejected", "message": apiErr.OperatorMessage()})
	case errors.As(err, &authErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "controller_auth_failed", "message": omada.OperatorMessage(err)})
	case errors.As(err, &transportErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "controller_unreachable", "message": omada.OperatorMessage(err)})
	}

	log.Printf("api request failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Unexpected error"})
}
