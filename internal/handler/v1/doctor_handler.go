package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/citamed/citamed/internal/service"
)

type DoctorHandler struct {
	doctors *service.DoctorService
}

func NewDoctorHandler(doctors *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctors: doctors}
}

func (h *DoctorHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/doctors")
	{
		group.GET("", h.List)
		group.GET("/search", h.Search)
		group.GET("/:id", h.Get)
	}
}

func (h *DoctorHandler) List(c *gin.Context) {
	doctors, err := h.doctors.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, doctors)
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	doc, err := h.doctors.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, doc)
}

func (h *DoctorHandler) Search(c *gin.Context) {
	doctors, err := h.doctors.Search(c.Request.Context(), c.Query("specialty"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, doctors)
}
