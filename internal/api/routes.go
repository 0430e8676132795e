package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	registerAPIRoutes(app, handler)
	app.Use(handler.NotFound)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/passcode", handler.IssuePasscode)
	auth.Post("/passcode/resend", handler.ResendPasscode)
	auth.Post("/passcode/verify", handler.VerifyPasscode)
	auth.Post("/login", handler.Login)
	auth.Post("/google", handler.GoogleSignIn)
	auth.Post("/logout", handler.Logout)
	auth.Get("/me", handler.AuthRequired, handler.Me)
	auth.Post("/password", handler.AuthRequired, handler.ChangePassword)

	api.Get("/languages", handler.ListLanguages)
	api.Get("/languages/:id", handler.GetLanguage)
	api.Get("/languages/:id/levels", handler.ListLevels)
	api.Get("/levels/:id/schedules", handler.ListSchedules)

	applications := api.Group("/applications", handler.AuthRequired)
	applications.Post("", handler.SubmitApplication)
	applications.Get("", handler.ListMyApplications)
	applications.Get("/:id", handler.GetApplication)
	applications.Get("/:id/documents/:kind", handler.ApplicationDocument)
	applications.Post("/:id/order", handler.CreateOrder)
	applications.Post("/:id/confirm", handler.ConfirmPayment)

	api.Post("/payments/webhook", handler.PaymentWebhook)

	enrollments := api.Group("/enrollments", handler.AuthRequired)
	enrollments.Get("", handler.ListMyEnrollments)
	enrollments.Post("", handler.Enroll)

	api.Get("/certificates/:id/download", handler.AuthRequired, handler.DownloadCertificate)
	api.Post("/contact", handler.SubmitContact)

	admin := api.Group("/admin", handler.AuthRequired, handler.StaffOnly)
	admin.Get("/stats", handler.AdminStats)
	admin.Get("/analytics", handler.AdminAnalytics)

	admin.Get("/applications", handler.AdminListApplications)
	admin.Get("/applications/:id", handler.GetApplication)
	admin.Get("/applications/:id/documents/:kind", handler.ApplicationDocument)
	admin.Patch("/applications/:id/status", handler.AdminSetApplicationStatus)

	admin.Get("/enrollments", handler.AdminListEnrollments)
	admin.Get("/enrollments/:id", handler.AdminGetEnrollment)
	admin.Patch("/enrollments/:id/progress", handler.AdminUpdateProgress)
	admin.Put("/enrollments/:id/schedule", handler.AdminAssignSchedule)
	admin.Post("/enrollments/:id/certificate/approve", handler.AdminApproveCertificate)
	admin.Post("/enrollments/:id/certificate/reject", handler.AdminRejectCertificate)

	admin.Get("/certificates", handler.AdminListCertificates)
	admin.Post("/certificates/:id/regenerate", handler.AdminRegenerateCertificate)

	admin.Get("/users", handler.AdminListUsers)
	admin.Post("/users", handler.AdminAddUser)
	admin.Get("/users/:id", handler.AdminGetUser)
	admin.Patch("/users/:id", handler.AdminUpdateUser)
	admin.Post("/users/:id/toggle", handler.AdminToggleUser)
	admin.Delete("/users/:id", handler.AdminDeactivateUser)

	admin.Get("/languages", handler.AdminListLanguages)
	admin.Post("/languages", handler.AdminCreateLanguage)
	admin.Patch("/languages/:id", handler.AdminUpdateLanguage)
	admin.Delete("/languages/:id", handler.AdminDeleteLanguage)
	admin.Post("/languages/:id/levels", handler.AdminCreateLevel)
	admin.Patch("/levels/:id", handler.AdminUpdateLevel)
	admin.Delete("/levels/:id", handler.AdminDeleteLevel)

	admin.Get("/contact", handler.AdminListContact)
	admin.Post("/contact/:id/read", handler.AdminMarkContactRead)
}

func (handler *Handler) NotFound(c *fiber.Ctx) error {
	return apiError(c, fiber.StatusNotFound, "not found")
}
