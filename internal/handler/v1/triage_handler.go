package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/citamed/citamed/internal/triage"
)

// TriageHandler exposes a stateless assessment preview so clients can show
// the urgency classification before committing to a booking.
type TriageHandler struct{}

func NewTriageHandler() *TriageHandler {
	return &TriageHandler{}
}

func (h *TriageHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/triage/assess", h.Assess)
}

type assessRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

func (h *TriageHandler) Assess(c *gin.Context) {
	var req assessRequest
	if !bindJSON(c, &req) {
		return
	}

	result := triage.Assess(req.Answers)
	detection := triage.DetectEmergency(req.Answers)

	resp := gin.H{
		"score":         result.Score,
		"urgencyLevel":  result.Urgency,
		"emergencyFlag": result.EmergencyFlag,
		"isEmergency":   detection.IsEmergency,
	}
	if detection.IsEmergency {
		resp["escalationType"] = detection.Type
		resp["reason"] = detection.Reason
	}

	respondOK(c, resp)
}
