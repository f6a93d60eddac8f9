package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options configures the server
type Options struct {
	JWTSecret      []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
	// BcryptCost of 0 uses bcrypt's default
	BcryptCost int
	GinMode    string
	Logger     *zap.Logger
}

// Server is an in-process implementation of the staffing API
type Server struct {
	Router *gin.Engine

	db     *gorm.DB
	opts   Options
	logger *zap.Logger
}

// New migrates the schema and mounts every route
func New(db *gorm.DB, opts Options) (*Server, error) {
	if len(opts.JWTSecret) == 0 {
		return nil, errors.New("devserver.New -> jwt secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 12 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("devserver.New -> failed to migrate -> %w", err)
	}

	s := &Server{
		Router: gin.New(),
		db:     db,
		opts:   opts,
		logger: opts.Logger,
	}
	s.MountMiddlewares()
	s.MountHandlers()
	return s, nil
}

// ServeHTTP lets the server be used directly as an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(s.requestLogger())
	s.Router.Use(cors.New(s.corsConfig()))
}

func (s *Server) corsConfig() cors.Config {
	conf := cors.DefaultConfig()
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization")
	conf.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}

	origins := make([]string, 0, len(s.opts.AllowedOrigins))
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" {
			conf.AllowAllOrigins = true
			return conf
		}
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
		return conf
	}
	conf.AllowOrigins = origins
	return conf
}

func (s *Server) MountHandlers() {
	s.Router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "staffmonitr API"})
	})

	api := s.Router.Group("/api")
	{
		api.POST("/auth/signup", s.Signup)
		api.POST("/auth/login", s.Login)
		api.GET("/auth/me", s.Me)

		api.GET("/accounts", s.ListAccounts)
		api.GET("/accounts/:id/staff", s.ListAccountStaff)
		api.POST("/accounts/:id/staff", s.AuthMiddleware(), s.RequireRole("Owner_admin"), s.CreateAccountStaff)
		api.GET("/accounts/:id/kids", s.ListKids)
		api.POST("/accounts/:id/kids", s.CreateKid)

		api.GET("/shifts", s.ListShifts)
		api.POST("/shifts", s.CreateShift)
		api.PATCH("/shifts/:id", s.UpdateShift)

		api.GET("/assignments/open", s.ListOpenShifts)
		api.POST("/assignments", s.CreateAssignment)
		api.POST("/assignments/:id/request", s.RequestOpenShift)
		api.GET("/assignments/:id/validate-geofence", s.ValidateGeofence)

		api.POST("/notifications/register", s.RegisterPushToken)
		api.POST("/notifications/assignment/:id", s.AssignmentAlert)

		api.GET("/reports/staff-utilization", s.StaffUtilization)
		api.GET("/reports/ratio-compliance", s.RatioCompliance)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("request_id", requestid.Get(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
