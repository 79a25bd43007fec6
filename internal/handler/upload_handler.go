package handler

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"bandhan/internal/middleware"
	"bandhan/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadBytes = 5 << 20

var allowedImageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

type UploadHandler struct {
	cloud cloudinary.Client
}

func NewUploadHandler(cloud cloudinary.Client) *UploadHandler {
	return &UploadHandler{cloud: cloud}
}

// Upload accepts a profile photo or payment screenshot and returns its URL.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID := middleware.GetUserID(c)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	if !allowedImageExt[strings.ToLower(filepath.Ext(file.Filename))] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only jpg, png or webp images allowed"})
		return
	}
	kind := c.DefaultPostForm("kind", "profile")
	if kind != "profile" && kind != "payment" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be profile or payment"})
		return
	}
	folder := "bandhan/" + kind + "/" + strconv.FormatUint(uint64(userID), 10)
	publicID := "img_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	url, err := h.cloud.UploadImage(c.Request.Context(), f, folder, publicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
