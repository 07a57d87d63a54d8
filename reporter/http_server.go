// This is a http type of reporter.
// It fetches data from the lock table and the plan journal
// and publishes on the http routes.

package reporter

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trumpow/txcraft/journal"
	"github.com/trumpow/txcraft/trmpman/locker"
)

const (
	ROUTE_HELLO = "/hello"
	ROUTE_LOCKS = "/locks"
	ROUTE_PLANS = "/plans"
	ROUTE_PLAN  = "/plan"
)

// DefaultPlanLimit caps /plans when no limit parameter is given.
const DefaultPlanLimit = 50

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data sources
	locks   *locker.Table
	journal *journal.Store // may be nil when journaling is disabled
}

func NewHttpReporter(serverIP string, serverPort string, locks *locker.Table, jrn *journal.Store) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		locks:      locks,
		journal:    jrn,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Define routes & handlers
	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_LOCKS, h.Locks)
	router.GET(ROUTE_PLANS, h.Plans)
	router.GET(ROUTE_PLAN, h.Plan)

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() {
	router := h.SetupRouter()
	address := h.serverIP + ":" + h.serverPort
	if err := router.Run(address); err != nil {
		panic(err)
	}
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

// Publish the outpoints held by in-flight plans.
func (h *HttpReporter) Locks(c *gin.Context) {
	snapshot := h.locks.Snapshot()
	c.JSON(http.StatusOK, gin.H{"count": len(snapshot), "data": snapshot})
}

// Publish the most recent journal entries.
func (h *HttpReporter) Plans(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journaling disabled"})
		return
	}

	limit := DefaultPlanLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := h.journal.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "data": entries})
}

// Fetch a single journal entry by txid
// Publish on the route
func (h *HttpReporter) Plan(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journaling disabled"})
		return
	}

	txid := c.Query("tx_id")
	if txid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tx_id must be provided"})
		return
	}

	entry, err := h.journal.ByTxID(txid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No plan found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entry})
}
