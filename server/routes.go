package server

import (
	"net/http"

	"github.com/jrsteele09/go-hr-console/guard"
	"github.com/jrsteele09/go-hr-console/users"
)

func (s *Server) initRoutes() {
	public := s.HTMLMiddleWare(s.WithBrowser)
	admin := s.HTMLMiddleWare(s.WithBrowser, s.RequireRole(users.RoleAdmin))
	employee := s.HTMLMiddleWare(s.WithBrowser, s.RequireRole(users.RoleEmployee))
	anyone := s.HTMLMiddleWare(s.WithBrowser, s.RequireRole(guard.AnyAuthenticated))

	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), public...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), public...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(), public...))
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterSubmissionHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), public...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), public...))

	// Admin routes
	s.RegisterRouteHandler("GET "+RouteAdminDashboard, ChainMiddleware(s.AdminDashboardHandler(), admin...))
	s.registerScreenRoutes(areaAdmin, RouteAdminScreen, RouteAdminItem, RouteAdminDelete, admin)

	// Employee routes; shared screens are open to every signed-in role
	s.RegisterRouteHandler("GET "+RouteEmployeeDashboard, ChainMiddleware(s.EmployeeDashboardHandler(), employee...))
	s.RegisterRouteHandler("POST "+RouteEmployeePhoto, ChainMiddleware(s.ChangePhotoHandler(), employee...))
	s.registerScreenRoutes(areaEmployee, RouteEmployeeScreen, RouteEmployeeItem, RouteEmployeeDelete, anyone)

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware(s.WithBrowser)...))
	s.RegisterRouteHandler("POST "+RouteAPIValidatePassword, ChainMiddleware(s.ValidatePasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPISession, ChainMiddleware(func(http.ResponseWriter, *http.Request) {}, s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) registerScreenRoutes(area, screenRoute, itemRoute, deleteRoute string, mw []func(http.HandlerFunc) http.HandlerFunc) {
	s.RegisterRouteHandler("GET "+screenRoute, ChainMiddleware(s.ResourceListHandler(area), mw...))
	s.RegisterRouteHandler("POST "+screenRoute, ChainMiddleware(s.ResourceCreateHandler(area), mw...))
	s.RegisterRouteHandler("GET "+itemRoute, ChainMiddleware(s.ResourceEditHandler(area), mw...))
	s.RegisterRouteHandler("POST "+itemRoute, ChainMiddleware(s.ResourceUpdateHandler(area), mw...))
	s.RegisterRouteHandler("POST "+deleteRoute, ChainMiddleware(s.ResourceDeleteHandler(area), mw...))
}
