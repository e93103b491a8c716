package httpserver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/media"
	cartsvc "storefront/internal/service/cart"
	ordersvc "storefront/internal/service/order"
	usersvc "storefront/internal/service/user"
	"storefront/internal/validation"
)

type CartService interface {
	NewSession() string
	Get(ctx context.Context, key string) (cartsvc.View, error)
	Add(ctx context.Context, key, productID string, quantity int) (cart.Result, cartsvc.View, error)
	Remove(ctx context.Context, key, productID string) (cart.Result, cartsvc.View, error)
	SetQuantity(ctx context.Context, key, productID string, quantity int) (cart.Result, cartsvc.View, error)
	Clear(ctx context.Context, key string) (cart.Result, cartsvc.View, error)
}

type ProductService interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	SetStock(ctx context.Context, id string, stock *int) (*domain.Product, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	Create(ctx context.Context, c domain.Category) (*domain.Category, error)
	Update(ctx context.Context, id string, c domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
}

type OrderService interface {
	Checkout(ctx context.Context, cartKey string, in ordersvc.CheckoutInput) (*domain.Order, error)
	CheckoutRegister(ctx context.Context, cartKey string, c ordersvc.RegisterCustomer) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetForUser(ctx context.Context, id, userID string) (*domain.Order, error)
	List(ctx context.Context, status string) ([]domain.Order, error)
	Mine(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
	MarkPaid(ctx context.Context, id string) (*domain.Order, error)
	MarkDelivered(ctx context.Context, id string) (*domain.Order, error)
	Stats(ctx context.Context, days int) (*domain.OrderStats, error)
}

type UserService interface {
	Register(ctx context.Context, in usersvc.RegisterInput) (*usersvc.Session, error)
	Login(ctx context.Context, email, password string) (*usersvc.Session, error)
	Logout(ctx context.Context, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	Profile(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, in usersvc.ProfileInput) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}

// Deps are the services behind the routes. Uploader may be nil, which
// disables image uploads.
type Deps struct {
	CartSvc     CartService
	ProductSvc  ProductService
	CategorySvc CategoryService
	OrderSvc    OrderService
	UserSvc     UserService
	Uploader    media.Uploader
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.CartSvc == nil:
		return errors.New("httpserver: cart service required")
	case d.ProductSvc == nil:
		return errors.New("httpserver: product service required")
	case d.CategorySvc == nil:
		return errors.New("httpserver: category service required")
	case d.OrderSvc == nil:
		return errors.New("httpserver: order service required")
	case d.UserSvc == nil:
		return errors.New("httpserver: user service required")
	}
	return nil
}

var registerBinding sync.Once

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db Pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger).Named("http")

	var bindErr error
	registerBinding.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			bindErr = validation.Register(v)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	router := gin.New()
	router.Use(requestLogger(logger), gin.CustomRecovery(recoverer(logger)), corsMiddleware(deps.CORSOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}

	api := router.Group("/api")
	api.Use(optionalAuth(deps.UserSvc))

	carts := api.Group("/carts")
	carts.POST("", h.newCart)
	sessionCart := carts.Group("/:key", sessionKey)
	h.mountCart(sessionCart)
	sessionCart.POST("/checkout", h.checkout)

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/categories", h.listCategories)
	api.GET("/categories/:id", h.getCategory)

	users := api.Group("/users")
	users.POST("/register", h.register)
	users.POST("/login", h.login)
	users.POST("/logout", requireUser, h.logout)
	users.GET("/profile", requireUser, h.profile)
	users.PUT("/profile", requireUser, h.updateProfile)

	orders := api.Group("/orders", requireUser)
	orders.GET("/mine", h.myOrders)
	orders.GET("/:id", h.getMyOrder)

	admin := api.Group("/admin", requireAdmin)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.PATCH("/products/:id/stock", h.setStock)

	admin.POST("/categories", h.createCategory)
	admin.PUT("/categories/:id", h.updateCategory)
	admin.DELETE("/categories/:id", h.deleteCategory)

	admin.GET("/orders", h.listOrders)
	admin.GET("/orders/:id", h.getOrder)
	admin.PUT("/orders/:id/status", h.updateOrderStatus)
	admin.PUT("/orders/:id/pay", h.markPaid)
	admin.PUT("/orders/:id/deliver", h.markDelivered)
	admin.GET("/stats", h.stats)

	admin.GET("/users", h.listUsers)
	admin.DELETE("/users/:id", h.deleteUser)

	admin.POST("/uploads", h.upload)

	register := admin.Group("/registers/:registerId/cart", registerKey)
	h.mountCart(register)
	register.POST("/checkout", h.checkoutRegister)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
