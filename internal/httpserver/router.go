package httpserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"washdesk/internal/domain"
	"washdesk/internal/metrics"
	customersvc "washdesk/internal/service/customer"
)

// CustomerService is the slice of the customer service the handlers need.
type CustomerService interface {
	Status(ctx context.Context, plate string) (*domain.EntitlementStatus, error)
	Search(ctx context.Context, query string) ([]domain.EntitlementStatus, error)
	RecordVisit(ctx context.Context, plate string, slot domain.SlotKind, confirmDuplicate bool) (*domain.EntitlementStatus, error)
	Renew(ctx context.Context, plate, planName string) (*domain.EntitlementStatus, error)
	Recharge(ctx context.Context, plate, planName string) (*domain.EntitlementStatus, error)
	AddSlot(ctx context.Context, plate string, kind domain.SlotKind, planName string) (*domain.EntitlementStatus, error)
	Register(ctx context.Context, in customersvc.RegisterInput) (*domain.CustomerRecord, error)
}

// Deps carries the collaborators the router wires into handlers.
type Deps struct {
	CustomerSvc CustomerService
	Metrics     *metrics.Metrics
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, store Pinger, deps Deps) (*gin.Engine, error) {
	if deps.CustomerSvc == nil {
		return nil, fmt.Errorf("customer service is required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(store))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	h := &customerHandlers{svc: deps.CustomerSvc}
	router.GET("/customers", h.search)
	router.POST("/customers", h.register)
	router.GET("/customers/:plate/status", h.status)
	router.POST("/customers/:plate/visits", h.recordVisit)
	router.POST("/customers/:plate/renewal", h.renew)
	router.POST("/customers/:plate/recharge", h.recharge)
	router.POST("/customers/:plate/slots", h.addSlot)

	return router, nil
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "store not configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "store not reachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
