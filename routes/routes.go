package routes

import (
	"studiopulse_go/controllers"
	"studiopulse_go/middleware"
	"studiopulse_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	// Initialize controllers
	authController := &controllers.AuthController{}
	orgController := &controllers.OrganizationController{}
	branchController := &controllers.BranchController{}
	studentController := &controllers.StudentController{}
	staffController := &controllers.StaffController{}
	professionalController := &controllers.ProfessionalController{}
	scheduleController := &controllers.StaffScheduleController{}
	serviceController := &controllers.ServiceController{}
	planController := &controllers.PlanController{}
	membershipController := &controllers.MembershipController{}
	appointmentController := &controllers.AppointmentController{}
	attendanceController := &controllers.AttendanceController{}
	transactionController := &controllers.TransactionController{}
	payrollController := &controllers.PayrollController{}
	inviteController := &controllers.InviteController{}
	notificationController := &controllers.NotificationController{}
	logController := &controllers.LogController{}
	healthController := controllers.NewHealthController()
	wsController := controllers.NewWebSocketController(wsHub)

	// API group
	api := app.Group("/api")

	// Public routes (no authentication required)
	api.Get("/health", healthController.GetHealth)

	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Post("/signup", authController.Signup)

	// Invitation acceptance is public: the invitee has no credentials yet
	api.Post("/invites/accept", inviteController.AcceptInvite)

	// Protected routes (require authentication); writes are audit-logged
	protected := api.Group("/", middleware.JWTMiddleware(), middleware.LogActivityMiddleware())

	protected.Post("/auth/logout", authController.Logout)
	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile/password", authController.ChangePassword)

	// Organization settings (owner only, PIN verify open to staff)
	org := protected.Group("/organization")
	org.Get("/", orgController.GetOrganization)
	org.Put("/", middleware.RequireOwner(), orgController.UpdateOrganization)
	org.Put("/pin", middleware.RequireOwner(), orgController.SetSecurityPin)
	org.Post("/pin/verify", orgController.VerifySecurityPin)

	// Branch management routes
	branches := protected.Group("/branches")
	branches.Get("/", branchController.GetBranches)
	branches.Get("/:id", branchController.GetBranch)
	branches.Post("/", middleware.RequireOwner(), branchController.CreateBranch)
	branches.Put("/:id", middleware.RequireOwner(), branchController.UpdateBranch)
	branches.Delete("/:id", middleware.RequireOwner(), branchController.DeleteBranch)

	// Student management routes
	students := protected.Group("/students")
	students.Get("/", studentController.GetStudents)
	students.Get("/:id", studentController.GetStudent)
	students.Get("/:id/status", studentController.GetStudentStatus)
	students.Get("/:id/memberships", membershipController.GetStudentMemberships)
	students.Post("/", studentController.CreateStudent)
	students.Post("/:id/photo", studentController.UploadPhoto)
	students.Put("/:id", studentController.UpdateStudent)
	students.Delete("/:id", middleware.RequireOwner(), studentController.DeleteStudent)

	// Staff management routes (owner only)
	staff := protected.Group("/staff", middleware.RequireOwner())
	staff.Get("/", staffController.GetStaff)
	staff.Get("/:id", staffController.GetStaffMember)
	staff.Post("/", staffController.CreateStaffMember)
	staff.Put("/:id", staffController.UpdateStaffMember)
	staff.Delete("/:id", staffController.DeactivateStaffMember)

	// Staff invitations (owner only)
	protected.Post("/invites", middleware.RequireOwner(), inviteController.CreateInvite)

	// External professionals
	professionals := protected.Group("/professionals")
	professionals.Get("/", professionalController.GetProfessionals)
	professionals.Post("/", middleware.RequireOwner(), professionalController.CreateProfessional)
	professionals.Put("/:id", middleware.RequireOwner(), professionalController.UpdateProfessional)
	professionals.Delete("/:id", middleware.RequireOwner(), professionalController.DeleteProfessional)

	// Weekly working windows per teacher
	schedules := protected.Group("/schedules")
	schedules.Get("/", scheduleController.GetSchedules)
	schedules.Post("/", middleware.RequireOwner(), scheduleController.CreateSchedule)
	schedules.Put("/:id", middleware.RequireOwner(), scheduleController.UpdateSchedule)
	schedules.Delete("/:id", middleware.RequireOwner(), scheduleController.DeleteSchedule)

	// Service catalog
	services := protected.Group("/services")
	services.Get("/", serviceController.GetServices)
	services.Post("/", middleware.RequireOwner(), serviceController.CreateService)
	services.Put("/:id", middleware.RequireOwner(), serviceController.UpdateService)
	services.Delete("/:id", middleware.RequireOwner(), serviceController.DeleteService)

	// Membership plans (owner only for writes)
	plans := protected.Group("/plans")
	plans.Get("/", planController.GetPlans)
	plans.Post("/", middleware.RequireOwner(), planController.CreatePlan)
	plans.Put("/:id", middleware.RequireOwner(), planController.UpdatePlan)
	plans.Delete("/:id", middleware.RequireOwner(), planController.DeletePlan)

	// Enrollment and membership lifecycle
	memberships := protected.Group("/memberships")
	memberships.Post("/enroll", membershipController.Enroll)
	memberships.Delete("/:id", middleware.RequireOwner(), membershipController.CancelMembership)
	memberships.Post("/expire-overdue", middleware.RequireOwner(), membershipController.ExpireOverdueMemberships)

	// Booking flow
	appointments := protected.Group("/appointments")
	appointments.Get("/", appointmentController.GetAppointments)
	appointments.Post("/", appointmentController.CreateAppointment)
	appointments.Post("/preview-coverage", appointmentController.PreviewCoverage)
	appointments.Put("/:id", appointmentController.UpdateAppointment)
	appointments.Delete("/:id", appointmentController.DeleteAppointment)
	appointments.Get("/:id/attendance", attendanceController.GetAttendanceHistory)

	// Attendance drawer
	attendance := protected.Group("/attendance")
	attendance.Get("/day", attendanceController.GetDayGroups)
	attendance.Post("/roster", attendanceController.GetRoster)
	attendance.Post("/save", attendanceController.SaveAttendance)
	attendance.Get("/walk-ins", attendanceController.SearchWalkIns)

	// Payment ledger
	transactions := protected.Group("/transactions")
	transactions.Get("/", transactionController.GetTransactions)
	transactions.Get("/summary", transactionController.GetSummary)
	transactions.Get("/export", middleware.RequireOwner(), transactionController.ExportTransactions)
	transactions.Post("/", transactionController.CreateTransaction)
	transactions.Post("/import", middleware.RequireOwner(), transactionController.ImportTransactions)

	// Payroll (owner only)
	payroll := protected.Group("/payroll", middleware.RequireOwner())
	payroll.Get("/", payrollController.GetPayroll)
	payroll.Get("/export", payrollController.ExportPayroll)
	payroll.Get("/runs", payrollController.GetPayrollRuns)
	payroll.Post("/runs", payrollController.CreatePayrollRun)

	// Notification feed
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Patch("/:id/read", notificationController.MarkRead)
	notifications.Patch("/mark-all-read", notificationController.MarkAllRead)

	// Audit trail (owner only)
	logs := protected.Group("/logs", middleware.RequireOwner())
	logs.Get("/", logController.GetActivityLogs)
	logs.Get("/stats", logController.GetLogStats)
	logs.Get("/archives", logController.GetArchivedLogs)
	logs.Get("/archives/:id/download", logController.DownloadArchivedLogs)

	// WebSocket routes
	ws := protected.Group("/ws")
	ws.Get("/stats", middleware.RequireOwner(), wsController.GetWebSocketStats)

	// WebSocket connection endpoint - use websocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
}
