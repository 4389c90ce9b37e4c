package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"bookstack.io/internal/api/middleware"
	"bookstack.io/internal/auth"
	"bookstack.io/internal/config"
	"bookstack.io/internal/domain"
	"bookstack.io/internal/infra"
)

// Deps carries everything the routes need.
type Deps struct {
	DB            *gorm.DB
	Tokens        *auth.TokenManager
	Hub           *infra.Hub
	Users         domain.UserService
	Books         domain.BookService
	Borrowings    domain.BorrowingService
	Notifications domain.NotificationService
}

// Router registers all routes on the app.
type Router struct {
	app  *fiber.App
	cfg  *config.Config
	deps Deps

	router fiber.Router // /api group
}

func NewRouter(app *fiber.App, cfg *config.Config, deps Deps) *Router {
	return &Router{
		app:  app,
		cfg:  cfg,
		deps: deps,
	}
}

// RegisterRoutes mounts the public surface, the websocket endpoint, and
// the protected /api group behind the JWT+Casbin middleware.
func (r *Router) RegisterRoutes() {
	enforcer, err := auth.InitCasbin(r.deps.DB)
	if err != nil {
		log.Fatalf("Failed to initialize Casbin: %v", err)
	}

	authHandler := NewAuthHandler(r.deps.DB, r.deps.Users, r.deps.Tokens)
	bookHandler := NewBookHandler(r.deps.Books)
	userHandler := NewUserHandler(r.deps.Users)
	borrowingHandler := NewBorrowingHandler(r.deps.Borrowings)
	notificationHandler := NewNotificationHandler(r.deps.Notifications)

	// Websocket endpoint authenticates at handshake, outside the HTTP
	// middleware chain.
	InitWebsocket(r.app, r.deps.Hub, r.deps.Tokens, r.deps.DB)

	authHandler.EnsureAdminUser()

	// Public routes.
	r.app.Post("/api/auth/register", authHandler.Register)
	r.app.Post("/api/auth/login", authHandler.Login)
	r.app.Get("/api/books", bookHandler.GetBooks)
	r.app.Get("/api/books/search", bookHandler.SearchBooks)
	r.app.Get("/api/books/:id", bookHandler.GetBook)

	// Protected routes.
	r.router = r.app.Group("/api")
	r.router.Use(middleware.AuthMiddleware(enforcer, r.deps.Tokens, r.deps.DB))

	r.registerAuthRoutes(authHandler)
	r.registerBookRoutes(bookHandler)
	r.registerUserRoutes(userHandler)
	r.registerBorrowingRoutes(borrowingHandler)
	r.registerNotificationRoutes(notificationHandler)
}

func (r *Router) registerAuthRoutes(h *AuthHandler) {
	authGroup := r.router.Group("/auth")
	authGroup.Get("/profile", h.GetProfile)
	authGroup.Put("/profile", h.UpdateProfile)
	authGroup.Put("/password", h.ChangePassword)
	authGroup.Post("/logout", h.Logout)
}

func (r *Router) registerBookRoutes(h *BookHandler) {
	books := r.router.Group("/books")
	books.Post("/", h.CreateBook)
	books.Put("/:id", h.UpdateBook)
	books.Delete("/:id", h.DeleteBook)
}

func (r *Router) registerUserRoutes(h *UserHandler) {
	users := r.router.Group("/users")
	users.Get("/", h.GetUsers)
	users.Post("/", h.CreateUser)
	users.Get("/:id", h.GetUser)
	users.Put("/:id", h.UpdateUser)
	users.Delete("/:id", h.DeleteUser)
}

func (r *Router) registerBorrowingRoutes(h *BorrowingHandler) {
	borrowings := r.router.Group("/borrowings")
	borrowings.Post("/", h.BorrowBook)
	borrowings.Get("/", h.GetBorrowings)
	borrowings.Get("/user/:userId", h.GetUserBorrowings)
	borrowings.Get("/:id", h.GetBorrowing)
	borrowings.Put("/:id/return", h.ReturnBook)
}

func (r *Router) registerNotificationRoutes(h *NotificationHandler) {
	notifications := r.router.Group("/notifications")
	notifications.Post("/", h.Create)
	notifications.Get("/user/:userId", h.GetUserNotifications)
	notifications.Put("/user/:userId/read-all", h.MarkAllRead)
	notifications.Put("/:id/read", h.MarkRead)
	notifications.Delete("/:id", h.Delete)
}
