package handlers

import (
	"net/http"
	"strings"

	centerRepo "ecocycle/database/repository/center"
	"ecocycle/models"

	"github.com/gin-gonic/gin"
)

// CenterHandler serves the recycling center directory.
type CenterHandler struct {
	Repo centerRepo.CenterRepository
}

func NewCenterHandler(repo centerRepo.CenterRepository) *CenterHandler {
	return &CenterHandler{Repo: repo}
}

// ListCenters returns active recycling centers. An optional "categories" query
// (comma-separated) narrows the listing to centers accepting any of them.
func (h *CenterHandler) ListCenters(c *gin.Context) {
	var (
		centers []models.RecyclingCenter
		err     error
	)
	if raw := c.Query("categories"); raw != "" {
		var cats []string
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				cats = append(cats, cat)
			}
		}
		centers, err = h.Repo.ListAcceptingAny(c, cats)
	} else {
		centers, err = h.Repo.ListActive(c)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load recycling centers, retry shortly"})
		return
	}
	if centers == nil {
		centers = []models.RecyclingCenter{}
	}
	c.JSON(http.StatusOK, gin.H{"centers": centers})
}
