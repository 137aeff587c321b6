package transport

import (
	"github.com/labstack/echo/v4"
	v2controllers "github.com/unionhall/ledgerhub/controllers_v2"
	"github.com/unionhall/ledgerhub/lib/service"
)

// RegisterV2Endpoints mounts the ledger API. Ledger entries have no write
// endpoint: they change only through payments and charge plugins.
func RegisterV2Endpoints(svc *service.LedgerService, e *echo.Echo, logMw echo.MiddlewareFunc, strictRateLimitMiddleware echo.MiddlewareFunc) {
	accountCtrl := v2controllers.NewAccountController(svc)
	eaCtrl := v2controllers.NewEntityAccountController(svc)
	paymentCtrl := v2controllers.NewPaymentController(svc)
	pluginCtrl := v2controllers.NewChargePluginController(svc)

	e.GET("/health", v2controllers.NewHealthController(svc.DB).Check)

	v2 := e.Group("/v2", logMw)
	v2.GET("/accounts", accountCtrl.ListAccounts)
	v2.POST("/accounts", accountCtrl.CreateAccount, strictRateLimitMiddleware)
	v2.GET("/accounts/:id", accountCtrl.GetAccount)
	v2.PUT("/accounts/:id", accountCtrl.UpdateAccount, strictRateLimitMiddleware)
	v2.DELETE("/accounts/:id", accountCtrl.DeleteAccount, strictRateLimitMiddleware)
	v2.GET("/accounts/:id/participants", accountCtrl.Participants)
	v2.GET("/accounts/:id/transactions", accountCtrl.Transactions)

	v2.POST("/eas", eaCtrl.LinkEntity, strictRateLimitMiddleware)
	v2.GET("/eas/:id", eaCtrl.GetEntityAccount)
	v2.GET("/eas/:id/balance", eaCtrl.Balance)
	v2.GET("/eas/:id/transactions", eaCtrl.Transactions)
	v2.GET("/eas/:id/payments", eaCtrl.Payments)
	v2.GET("/eas/:id/invoices", eaCtrl.Invoices)
	v2.GET("/eas/:id/invoices/:year/:month", eaCtrl.InvoiceDetails)

	v2.GET("/transactions", v2controllers.NewTransactionController(svc).ByReference)

	v2.GET("/payment-types", paymentCtrl.ListPaymentTypes)
	v2.POST("/payments", paymentCtrl.CreatePayment, strictRateLimitMiddleware)
	v2.GET("/payments/:id", paymentCtrl.GetPayment)
	v2.PUT("/payments/:id", paymentCtrl.UpdatePayment, strictRateLimitMiddleware)
	v2.DELETE("/payments/:id", paymentCtrl.DeletePayment, strictRateLimitMiddleware)

	v2.GET("/charge-plugins/configs", pluginCtrl.ListConfigs)
	v2.POST("/charge-plugins/configs", pluginCtrl.CreateConfig, strictRateLimitMiddleware)
	v2.PUT("/charge-plugins/configs/:id/enabled", pluginCtrl.SetEnabled, strictRateLimitMiddleware)
	v2.POST("/charge-plugins/preview", pluginCtrl.Preview)
}
