package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/pkg/pubsub"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
	// StatusDegraded indicates a component is working but with reduced functionality
	StatusDegraded Status = "degraded"
)

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func() (Status, string, error)

// Checker manages health checks for the system
type Checker struct {
	checks      map[string]Check
	components  map[string]*Component
	checkPeriod time.Duration
	mutex       sync.RWMutex
	log         *logger.Logger
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger, checkPeriod time.Duration) *Checker {
	checker := &Checker{
		checks:      make(map[string]Check),
		components:  make(map[string]*Component),
		checkPeriod: checkPeriod,
		log:         log,
	}

	checker.RegisterCheck("self", func() (Status, string, error) {
		return StatusUp, "Health checker is running", nil
	})

	return checker
}

// RegisterCheck registers a new health check
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = check
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Description: "Not checked yet",
		LastChecked: time.Time{},
	}
}

// RegisterDatabaseCheck adds a check that pings the database
func (c *Checker) RegisterDatabaseCheck(db *gorm.DB) {
	c.RegisterCheck("database", func() (Status, string, error) {
		sqlDB, err := db.DB()
		if err != nil {
			return StatusDown, "Cannot access connection pool", err
		}
		if err := sqlDB.Ping(); err != nil {
			return StatusDown, "Database unreachable", err
		}
		return StatusUp, "Database reachable", nil
	})
}

// RegisterBrokerCheck adds a check that pings the pub/sub broker
func (c *Checker) RegisterBrokerCheck(broker pubsub.Broker) {
	c.RegisterCheck("broker", func() (Status, string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := broker.Ping(ctx); err != nil {
			// Chat delivery degrades without the broker but the rest of
			// the API still functions
			return StatusDegraded, "Pub/sub broker unreachable", err
		}
		return StatusUp, "Pub/sub broker reachable", nil
	})
}

// RunChecks executes all registered health checks
func (c *Checker) RunChecks() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for name, check := range c.checks {
		status, description, err := check()

		component := c.components[name]
		component.Status = status
		component.Description = description
		component.LastChecked = time.Now()

		if err != nil {
			component.Error = err.Error()
			c.log.Error("Health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
		} else {
			component.Error = ""
		}
	}
}

// Start begins periodic health checking in the background
func (c *Checker) Start() {
	go func() {
		ticker := time.NewTicker(c.checkPeriod)
		defer ticker.Stop()

		c.RunChecks()
		for range ticker.C {
			c.RunChecks()
		}
	}()
}

// Overall returns the aggregate status across all components
func (c *Checker) Overall() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	overall := StatusUp
	for _, component := range c.components {
		switch component.Status {
		case StatusDown:
			return StatusDown
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

// Handler returns a gin handler exposing the current health snapshot
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		c.mutex.RLock()
		components := make([]Component, 0, len(c.components))
		for _, component := range c.components {
			components = append(components, *component)
		}
		c.mutex.RUnlock()

		overall := c.Overall()
		code := http.StatusOK
		if overall == StatusDown {
			code = http.StatusServiceUnavailable
		}

		ctx.JSON(code, gin.H{
			"status":     overall,
			"components": components,
			"time":       time.Now().Format(time.RFC3339),
		})
	}
}
