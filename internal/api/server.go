package api

import (
	"fmt"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/felicity-connect/backend/docs"
	v1 "github.com/felicity-connect/backend/internal/api/handler/v1"
	"github.com/felicity-connect/backend/internal/api/middleware"
	"github.com/felicity-connect/backend/internal/config"
	"github.com/felicity-connect/backend/internal/pkg/discord"
	"github.com/felicity-connect/backend/internal/pkg/filestore"
	"github.com/felicity-connect/backend/internal/pkg/mailer"
	"github.com/felicity-connect/backend/internal/repository"
	"github.com/felicity-connect/backend/internal/repository/dao"
	"github.com/felicity-connect/backend/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	mail  mailer.Mailer
	files *filestore.Store
}

func NewServer(conf *config.AppConfig, db *gorm.DB) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	files, err := filestore.New(conf.Uploads.Root)
	if err != nil {
		return nil, fmt.Errorf("filestore.New -> %w", err)
	}

	s := &Server{
		Config: conf,
		Router: engine,
		mail:   mailer.New(conf.Mailer),
		files:  files,
	}

	s.MountMiddlewares()

	userSvc := s.initUserService(db)
	authHandler := s.initAuthHandler(db)
	userHandler := v1.NewUserHandler(userSvc)
	eventHandler := s.initEventHandler(db, userSvc)
	registrationHandler := s.initRegistrationHandler(db, userSvc)
	orderHandler := s.initOrderHandler(db, userSvc)
	ticketHandler := s.initTicketHandler(db, userSvc)
	attendanceHandler := s.initAttendanceHandler(db, userSvc)
	adminHandler := s.initAdminHandler(db, userSvc)

	s.MountHandlers(
		authHandler,
		userHandler,
		eventHandler,
		registrationHandler,
		orderHandler,
		ticketHandler,
		attendanceHandler,
		adminHandler,
	)

	return s, nil
}

func (s *Server) initUserService(db *gorm.DB) *service.UserService {
	repo := repository.NewUserRepository(dao.NewUserDAO(db))

	return service.NewUserService(repo)
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	repo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initEventHandler(db *gorm.DB, userSvc *service.UserService) *v1.EventHandler {
	repo := repository.NewEventRepository(dao.NewEventDAO(db))
	orderDAO := dao.NewOrderDAO(db)
	registrationRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db), orderDAO)
	orderRepo := repository.NewOrderRepository(orderDAO)
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewEventService(repo, registrationRepo, orderRepo, userRepo, discord.NewWebhook())
	handler := v1.NewEventHandler(svc, userSvc)

	return handler
}

func (s *Server) initRegistrationHandler(db *gorm.DB, userSvc *service.UserService) *v1.RegistrationHandler {
	repo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db), dao.NewOrderDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	ticketRepo := repository.NewTicketRepository(dao.NewTicketDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewRegistrationService(repo, eventRepo, ticketRepo, userRepo, s.mail, s.files)
	handler := v1.NewRegistrationHandler(svc, userSvc, s.files)

	return handler
}

func (s *Server) initOrderHandler(db *gorm.DB, userSvc *service.UserService) *v1.OrderHandler {
	repo := repository.NewOrderRepository(dao.NewOrderDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewOrderService(repo, eventRepo, userRepo, s.mail, s.files)
	handler := v1.NewOrderHandler(svc, userSvc, s.files)

	return handler
}

func (s *Server) initTicketHandler(db *gorm.DB, userSvc *service.UserService) *v1.TicketHandler {
	repo := repository.NewTicketRepository(dao.NewTicketDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	svc := service.NewTicketService(repo, eventRepo)
	handler := v1.NewTicketHandler(svc, userSvc)

	return handler
}

func (s *Server) initAttendanceHandler(db *gorm.DB, userSvc *service.UserService) *v1.AttendanceHandler {
	repo := repository.NewAttendanceRepository(dao.NewAttendanceDAO(db))
	ticketRepo := repository.NewTicketRepository(dao.NewTicketDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	orderDAO := dao.NewOrderDAO(db)
	registrationRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db), orderDAO)
	orderRepo := repository.NewOrderRepository(orderDAO)
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewAttendanceService(repo, ticketRepo, eventRepo, registrationRepo, orderRepo, userRepo)
	handler := v1.NewAttendanceHandler(svc, userSvc)

	return handler
}

func (s *Server) initAdminHandler(db *gorm.DB, userSvc *service.UserService) *v1.AdminHandler {
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	resetRepo := repository.NewResetRequestRepository(dao.NewResetRequestDAO(db))
	svc := service.NewAdminService(userRepo, resetRepo)
	handler := v1.NewAdminHandler(svc, userSvc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	eventHandler *v1.EventHandler,
	registrationHandler *v1.RegistrationHandler,
	orderHandler *v1.OrderHandler,
	ticketHandler *v1.TicketHandler,
	attendanceHandler *v1.AttendanceHandler,
	adminHandler *v1.AdminHandler,
) {
	const basePath = "/api/v1"

	verifyJWT := middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT()

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	users := s.Router.Group(basePath, verifyJWT)
	{
		users.GET("/me", userHandler.HandleGetMe)
		users.POST("/me/onboarding", userHandler.HandleCompleteOnboarding)
		users.POST("/organizers/:organizerID/follow", userHandler.HandleFollowOrganizer)

		users.GET("/me/registrations", registrationHandler.HandleMyRegistrations)
		users.GET("/me/orders", orderHandler.HandleMyOrders)
		users.GET("/me/tickets", ticketHandler.HandleMyTickets)
		users.GET("/me/tickets/:ticketID", ticketHandler.HandleGetTicket)
		users.GET("/me/tickets/:ticketID/calendar.ics", ticketHandler.HandleTicketICS)
	}

	events := s.Router.Group(basePath, verifyJWT)
	{
		events.GET("/events", eventHandler.HandleBrowseEvents)
		events.GET("/events/trending", eventHandler.HandleTrendingEvents)
		events.GET("/events/:eventID", eventHandler.HandleGetEvent)
		events.GET("/events/:eventID/teams", registrationHandler.HandleTeamOptions)
		events.POST("/events/:eventID/registrations", registrationHandler.HandleRegister)
		events.POST("/events/:eventID/orders", orderHandler.HandlePurchase)
		events.POST("/orders/:orderID/proof", orderHandler.HandleUploadProof)
		events.POST("/orders/:orderID/cancel", orderHandler.HandleCancelOrder)
	}

	organizer := s.Router.Group(basePath+"/organizer", verifyJWT, middleware.RequireRole("organizer"))
	{
		organizer.GET("/events", eventHandler.HandleListMyEvents)
		organizer.POST("/events", eventHandler.HandleCreateEvent)
		organizer.PATCH("/events/:eventID", eventHandler.HandleUpdateEvent)
		organizer.DELETE("/events/:eventID", eventHandler.HandleDeleteEvent)
		organizer.POST("/events/:eventID/status", eventHandler.HandleChangeEventStatus)
		organizer.GET("/events/:eventID/analytics", eventHandler.HandleEventAnalytics)

		organizer.GET("/events/:eventID/registrations", registrationHandler.HandleListEventRegistrations)
		organizer.GET("/events/:eventID/orders", orderHandler.HandleListEventOrders)
		organizer.POST("/orders/:orderID/review", orderHandler.HandleReviewOrder)

		organizer.POST("/events/:eventID/scan", attendanceHandler.HandleScan)
		organizer.POST("/events/:eventID/attendance/override", attendanceHandler.HandleManualOverride)
		organizer.GET("/events/:eventID/attendance", attendanceHandler.HandleAttendanceDashboard)
		organizer.GET("/events/:eventID/attendance/export", attendanceHandler.HandleExportAttendance)
	}

	admin := s.Router.Group(basePath+"/admin", verifyJWT, middleware.RequireRole("admin"))
	{
		admin.GET("/organizers", adminHandler.HandleListOrganizers)
		admin.POST("/organizers", adminHandler.HandleCreateOrganizer)
		admin.PATCH("/organizers/:organizerID", adminHandler.HandleUpdateOrganizer)
		admin.DELETE("/organizers/:organizerID", adminHandler.HandleArchiveOrganizer)
		admin.POST("/organizers/:organizerID/disabled", adminHandler.HandleSetOrganizerDisabled)
		admin.POST("/organizers/:organizerID/reset-requests", adminHandler.HandleRequestPasswordReset)
		admin.GET("/reset-requests", adminHandler.HandleListResetRequests)
		admin.POST("/reset-requests/:requestID/resolve", adminHandler.HandleResolveResetRequest)
		admin.POST("/reset-requests/:requestID/dismiss", adminHandler.HandleDismissResetRequest)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Felicity Connect API"
	docs.SwaggerInfo.Description = "Campus fest platform: events, registrations, merchandise and attendance."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
