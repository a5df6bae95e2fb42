package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Akinaru/event-poll/database"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var errDatabaseUnavailable = errors.New("database not connected")

// Health reports liveness, database reachability and host resources
func Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"database":  "ok",
	}

	if err := pingDatabase(); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = err.Error()
	}

	body["resources"] = hostResources()
	c.JSON(status, body)
}

func pingDatabase() error {
	if database.DB == nil {
		return errDatabaseUnavailable
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// hostResources returns current system resources
func hostResources() map[string]interface{} {
	resources := make(map[string]interface{})

	// CPU
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		resources["cpuPercent"] = cpuPercent[0]
	}

	// Memory
	if memInfo, err := mem.VirtualMemory(); err == nil {
		resources["memoryTotal"] = memInfo.Total
		resources["memoryUsed"] = memInfo.Used
		resources["memoryPercent"] = memInfo.UsedPercent
	}

	return resources
}
