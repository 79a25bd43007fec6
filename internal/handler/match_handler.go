package handler

import (
	"net/http"

	"bandhan/internal/middleware"
	"bandhan/internal/repository"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matchRepo *repository.MatchRepository
}

func NewMatchHandler(matchRepo *repository.MatchRepository) *MatchHandler {
	return &MatchHandler{matchRepo: matchRepo}
}

// List returns the user's admin-curated matches.
func (h *MatchHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	matches, err := h.matchRepo.ListForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	out := make([]gin.H, len(matches))
	for i, m := range matches {
		entry := gin.H{
			"id":              m.ID,
			"matched_user_id": m.MatchedUserID,
			"created_at":      m.CreatedAt,
		}
		entry["name"] = m.MatchedUser.Name
		if m.MatchedUser.Profile != nil {
			p := m.MatchedUser.Profile
			entry["age"] = p.Age
			entry["city"] = p.City
			entry["state"] = p.State
			entry["occupation"] = p.Occupation
			entry["profile_photo"] = p.ProfilePhoto
		}
		out[i] = entry
	}
	c.JSON(http.StatusOK, gin.H{"matches": out})
}
