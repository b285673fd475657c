package constants

// Static route constants
const (
	APIRoute   = "/api"
	APIv1Route = "/v1"

	PingRoute          = "/ping"
	SyncSitesRoute     = "/sync/sites"
	SiteVouchersRoute  = "/sites/:id/vouchers"
	SiteSyncRoute      = "/sites/:id/sync-vouchers"
	SiteReportRoute    = "/sites/:id/reports/sales"
	GroupExpiredRoute  = "/voucher-groups/:id/expired"
	OmadaConfigRoute   = "/config/omada"
	OmadaConfigTestURL = "/config/omada/test"
)
