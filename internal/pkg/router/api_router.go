package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/camstm/voucherhub/internal/api/v1"
	"github.com/camstm/voucherhub/internal/pkg/constants"
	"github.com/camstm/voucherhub/internal/pkg/database"
	"github.com/camstm/voucherhub/internal/pkg/middleware"
	"github.com/camstm/voucherhub/internal/pkg/omada"
	"github.com/camstm/voucherhub/internal/pkg/voucher"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	db := database.GetDB()
	tokens := omada.NewTokenManager(omada.NewConfigStore(db))
	controller := omada.NewClient(tokens)
	svc := voucher.NewServiceFromDB(db, controller)

	// API v1 routes, all behind API key authentication
	v1 := api.Group(constants.APIv1Route, middleware.APIKeyAuthMiddleware())
	apiServer := apiv1.NewAPIServer(svc, tokens, controller)
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
