package fakeapi

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.PublicMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.PublicMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.PublicMiddleware()...))

	// Accounts are created by signed-in administrators only
	s.RegisterRouteFunc("POST "+RouteUserRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.registerCollection(CollectionUsers, false)

	s.registerCollection(CollectionCustomers, true)
	s.registerCollection(CollectionProducts, true)
	s.registerCollection(CollectionBanks, true)
	s.registerCollection(CollectionTransactions, true)

	// INVENTORY
	s.RegisterRouteFunc("GET "+RouteInventoryForProduct, ChainMiddleware(s.ListHandler(CollectionInventory, productFilter), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteInventoryAvailable, ChainMiddleware(s.ListHandler(CollectionInventory, availableFilter), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteInventoryByStatus, ChainMiddleware(s.InventoryMatchHandler("status", "status"), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteInventorySold, ChainMiddleware(s.ListHandler(CollectionInventory, soldFilter), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteInventoryByInvoice, ChainMiddleware(s.InventoryMatchHandler("invoiceNumber", "invoiceNumber"), s.APIMiddleware()...))
	s.RegisterRouteFunc("PUT "+RouteInventoryBulkStatus, ChainMiddleware(s.BulkStatusHandler(), s.APIMiddleware()...))
	s.registerCollection(CollectionInventory, true)

	// INVOICES
	s.RegisterRouteFunc("GET "+RouteInvoiceMonthlyTotals, ChainMiddleware(s.MonthlyTotalsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteInvoicePOD, ChainMiddleware(s.UploadPODHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteInvoicePOD, ChainMiddleware(s.GetPODHandler(), s.APIMiddleware()...))
	s.registerCollection(CollectionInvoices, true)

	// TRANSPORTERS
	s.RegisterRouteFunc("GET "+RouteTransporterSearch, ChainMiddleware(s.ListHandler(CollectionTransporters, nil), s.APIMiddleware()...))
	s.RegisterRouteFunc("PATCH "+RouteTransporterStatus, ChainMiddleware(s.TransporterStatusHandler(), s.APIMiddleware()...))
	s.registerCollection(CollectionTransporters, true)

	// EMAIL
	s.RegisterRouteFunc("POST "+RouteEmailInvoice, ChainMiddleware(s.InvoiceEmailHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteEmailPurchaseOrder, ChainMiddleware(s.PurchaseOrderEmailHandler(), s.APIMiddleware()...))

	// REPORTS
	s.RegisterRouteFunc("GET "+RouteAnalytics, ChainMiddleware(s.AnalyticsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteDashboardStats, ChainMiddleware(s.DashboardStatsHandler(), s.APIMiddleware()...))
}

// registerCollection adds the CRUD routes for a collection under /<name>.
// Users are created through the register route instead of a plain POST.
func (s *Server) registerCollection(name string, withCreate bool) {
	base := "/" + name
	item := base + "/{id}"
	s.RegisterRouteFunc("GET "+base, ChainMiddleware(s.ListHandler(name, nil), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+item, ChainMiddleware(s.GetHandler(name), s.APIMiddleware()...))
	if withCreate {
		s.RegisterRouteFunc("POST "+base, ChainMiddleware(s.CreateHandler(name), s.APIMiddleware()...))
	}
	s.RegisterRouteFunc("PUT "+item, ChainMiddleware(s.UpdateHandler(name), s.APIMiddleware()...))
	s.RegisterRouteFunc("DELETE "+item, ChainMiddleware(s.DeleteHandler(name), s.APIMiddleware()...))
}
