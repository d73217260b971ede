package fakeapi

// Route path constants
const (
	RouteAuthLogin   = "/auth/login"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"

	RouteUserRegister = "/user/register"

	RouteInventoryForProduct = "/inventory/product/{productId}"
	RouteInventoryAvailable  = "/inventory/product/{productId}/available"
	RouteInventoryByStatus   = "/inventory/status/{status}"
	RouteInventorySold       = "/inventory/sold"
	RouteInventoryByInvoice  = "/inventory/invoice/{invoiceNumber}"
	RouteInventoryBulkStatus = "/inventory/bulk-update-status"

	RouteTransporterSearch = "/transporter/search"
	RouteTransporterStatus = "/transporter/{id}/status"

	RouteInvoicePOD           = "/custprod/{id}/pod"
	RouteInvoiceMonthlyTotals = "/custprod/monthly-totals"

	RouteEmailInvoice       = "/email/invoice"
	RouteEmailPurchaseOrder = "/email/email"

	RouteAnalytics      = "/analytics/{kind}"
	RouteDashboardStats = "/dashboard/stats"
)

// Collection names, which are also their base paths without the slash
const (
	CollectionUsers        = "user"
	CollectionCustomers    = "customer"
	CollectionProducts     = "product"
	CollectionBanks        = "bank"
	CollectionTransactions = "transaction"
	CollectionInventory    = "inventory"
	CollectionInvoices     = "custprod"
	CollectionTransporters = "transporter"
)
