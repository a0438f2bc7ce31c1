package routes

import (
	"bloem/config"
	"bloem/controllers/callback/gatewaycb"
	"bloem/controllers/customer"
	"bloem/controllers/merchant"
	"bloem/controllers/settle"
	"bloem/controllers/terminal"
	"bloem/ledger"
	"bloem/middlewares"
	"bloem/paycode"
	"bloem/settlement"

	"github.com/gofiber/fiber/v2"
)

// Deps is the wiring the route table hands to the handlers.
type Deps struct {
	Codes        *paycode.Store
	Points       *ledger.Ledger
	Orchestrator *settlement.Orchestrator
	Settings     config.Settings
}

func Setup(app *fiber.App, deps Deps) {
	app.Post("/merchant/register", merchant.RegisterMerchant)
	app.Post("/customer/register", customer.RegisterCustomer)

	// merchant terminal
	terminalroutes := app.Group("/terminal", middlewares.MerchantAuth)
	terminalroutes.Post("/codes", terminal.IssueCode(deps.Codes))

	// customer device: resolve is read-only and needs no merchant session
	app.Post("/codes/resolve", terminal.ResolveCode(deps.Codes))

	// settlement
	app.Post("/settlement/cash", settle.Cash(deps.Orchestrator))
	app.Post("/settlement/card", settle.Card(deps.Orchestrator))

	// gateway webhook
	callbackroutes := app.Group("/callback", middlewares.GatewayWebhookAuth(deps.Settings.GatewayWebhookSecret))
	callbackroutes.Post("/gateway", gatewaycb.Webhook(deps.Orchestrator))

	// point ledger reads
	app.Post("/customer/points/balance", customer.Balance(deps.Points))
	app.Post("/customer/points/level", customer.Level(deps.Points))
}
