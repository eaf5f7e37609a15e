package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/worklane/worklane-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/me", handlers.Me)

	// Profile routes
	r.Get("/api/users/{username}", handlers.GetProfile)
	r.Put("/api/profile", handlers.UpdateProfile)
	r.Post("/api/profile/avatar", handlers.UploadAvatar)
	r.Post("/api/profile/cv", handlers.UploadCV)

	// Profile comments (approved only publicly; pending until moderated)
	r.Get("/api/users/{username}/comments", handlers.ListComments)
	r.Post("/api/users/{username}/comments", handlers.PostComment)

	// Block list routes
	r.Get("/api/blocks", handlers.ListBlocked)
	r.Post("/api/blocks/{username}", handlers.BlockUser)
	r.Delete("/api/blocks/{username}", handlers.UnblockUser)

	// Job board routes
	r.Get("/api/jobs", handlers.ListJobs)
	r.Post("/api/jobs", handlers.CreateJob)
	r.Get("/api/jobs/mine", handlers.MyJobs)
	r.Get("/api/jobs/{jobID}", handlers.GetJob)
	r.Post("/api/jobs/{jobID}/close", handlers.CloseJob)

	// Application routes
	r.Post("/api/jobs/{jobID}/applications", handlers.Apply)
	r.Get("/api/jobs/{jobID}/applications", handlers.ListJobApplications)
	r.Get("/api/applications/mine", handlers.MyApplications)

	// Daily action limits (peek only, nothing consumed)
	r.Get("/api/limits", handlers.GetActionLimits)

	// Messaging routes (PostgreSQL conversations + MongoDB history)
	r.Get("/api/chat/conversations", handlers.ListConversations)
	r.Post("/api/chat/conversations", handlers.OpenConversation)
	r.Get("/api/chat/conversations/{conversationID}/messages", handlers.GetMessages)
	r.Post("/api/chat/conversations/{conversationID}/messages", handlers.PostMessage)
	r.Post("/api/chat/conversations/{conversationID}/read", handlers.MarkRead)

	// WebSocket endpoints for realtime messaging
	r.Get("/ws/chat", handlers.ChatWebSocket)
	r.Get("/ws/inbox", handlers.InboxWebSocket)

	// Notification routes
	r.Get("/api/notifications", handlers.ListNotifications)
	r.Post("/api/notifications/read-all", handlers.MarkAllNotificationsRead)
	r.Post("/api/notifications/{notificationID}/read", handlers.MarkNotificationRead)

	// Report routes
	r.Post("/api/reports", handlers.FileReport)
	r.Get("/api/reports/mine", handlers.MyReports)

	// Admin auth (admin accounts are created directly in the database)
	r.Post("/api/admin/signin", handlers.AdminSignin)
	r.Post("/api/admin/signout", handlers.AdminSignout)

	// Admin moderation queues
	r.Get("/api/admin/jobs/pending", handlers.PendingJobs)
	r.Put("/api/admin/jobs/{jobID}/review", handlers.ReviewJob)
	r.Get("/api/admin/comments/pending", handlers.PendingComments)
	r.Put("/api/admin/comments/{commentID}/review", handlers.ReviewComment)
	r.Get("/api/admin/reports/pending", handlers.PendingReports)
	r.Put("/api/admin/reports/{reportID}/review", handlers.ResolveReport)

	// Admin user management
	r.Get("/api/admin/users/suspicious", handlers.SuspiciousUsers)
	r.Put("/api/admin/users/{username}/suspend", handlers.SetSuspended)
	r.Put("/api/admin/users/{username}/badges", handlers.SetBadges)
	r.Put("/api/admin/unblock-ip", handlers.UnblockIPAddress)
}
