package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourdaily/daily-podcaster/app/cfg"
	"github.com/yourdaily/daily-podcaster/app/database"
	"github.com/yourdaily/daily-podcaster/app/timeutil"
)

type Handler struct {
	store    *database.Store
	audioDir string
}

func NewHandler(store *database.Store, audioDir string) *Handler {
	return &Handler{store: store, audioDir: audioDir}
}

// GetFeed serves the generated podcast feed document.
func (h *Handler) GetFeed(c *gin.Context) {
	path := filepath.Join(h.audioDir, "podcast.xml")

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("Podcast feed not available", "path", path, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, string(data))
}

// GetAudio serves a published audio file by name.
func (h *Handler) GetAudio(c *gin.Context) {
	name := c.Param("name")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		c.Status(http.StatusBadRequest)
		return
	}
	if filepath.Ext(name) != ".mp3" {
		c.Status(http.StatusNotFound)
		return
	}

	path := filepath.Join(h.audioDir, name)
	if _, err := os.Stat(path); err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Content-Type", "audio/mpeg")
	c.File(path)
}

// HealthCheck returns service liveness and version information.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   cfg.Get().Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GetStats returns the processing counters for one date. The date query
// parameter defaults to yesterday.
func (h *Handler) GetStats(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = timeutil.Yesterday()
	}
	if !timeutil.ValidDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	c.JSON(http.StatusOK, h.store.StatsForDate(date))
}
