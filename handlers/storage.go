package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"ecocycle/services/storage"

	"github.com/gin-gonic/gin"
)

// StorageHandler handles evidence media uploads. Uploads return the opaque
// reference the collector later attaches at completion.
type StorageHandler struct {
	StorageSvc storage.StorageService
}

// NewStorageHandler creates a new StorageHandler instance.
func NewStorageHandler(svc storage.StorageService) *StorageHandler {
	return &StorageHandler{StorageSvc: svc}
}

// UploadEvidenceHandler stores an evidence photo or video and returns its
// permanent reference.
func (h *StorageHandler) UploadEvidenceHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file not provided", "detail": err.Error()})
		return
	}

	tempDir := os.TempDir()
	tempFilePath := filepath.Join(tempDir, fileHeader.Filename)
	if err := c.SaveUploadedFile(fileHeader, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file", "detail": err.Error()})
		return
	}
	defer os.Remove(tempFilePath)

	publicID, err := h.StorageSvc.UploadFile(c, tempFilePath, storage.EvidenceFolder)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file", "detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "evidence uploaded successfully",
		"evidence_ref": publicID,
	})
}

// DeleteEvidenceHandler removes a stored evidence file. Reserved for admins
// cleaning up after cancelled or disputed requests.
func (h *StorageHandler) DeleteEvidenceHandler(c *gin.Context) {
	publicID := c.Param("ref")
	if err := h.StorageSvc.DeleteFile(c, publicID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "evidence deleted successfully"})
}

// GetEvidenceURLHandler constructs a download URL for a stored evidence file.
func (h *StorageHandler) GetEvidenceURLHandler(c *gin.Context) {
	publicID := c.Param("ref")

	expiry := 15 * time.Minute
	if expStr := c.Query("expires"); expStr != "" {
		if exp, err := time.ParseDuration(expStr); err == nil {
			expiry = exp
		}
	}

	url, err := h.StorageSvc.GetDownloadURL(c, "image", publicID, expiry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate download URL", "detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"downloadURL": url})
}
