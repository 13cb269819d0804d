package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Auth Routes
	RouteLogin    = "/login"
	RouteRegister = "/register"
	RouteLogout   = "/logout"

	// Admin Routes
	RouteAdminDashboard = "/admin/dashboard"
	RouteAdminScreen    = "/admin/{screen}"
	RouteAdminItem      = "/admin/{screen}/{id}"
	RouteAdminDelete    = "/admin/{screen}/{id}/delete"

	// Employee Routes
	RouteEmployeeDashboard = "/employee/dashboard"
	RouteEmployeePhoto     = "/employee/profile/photo"
	RouteEmployeeScreen    = "/employee/{screen}"
	RouteEmployeeItem      = "/employee/{screen}/{id}"
	RouteEmployeeDelete    = "/employee/{screen}/{id}/delete"

	// API Routes
	RouteAPISession          = "/api/session"
	RouteAPIValidatePassword = "/api/validate-password"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)

const (
	areaAdmin    = "/admin"
	areaEmployee = "/employee"
)
