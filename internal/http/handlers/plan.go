package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mealplanr/internal/http/middleware"
	"mealplanr/internal/http/response"
	"mealplanr/internal/planner"
)

type PlanHandler struct {
	plans *planner.Service
}

func NewPlanHandler(plans *planner.Service) *PlanHandler {
	return &PlanHandler{plans: plans}
}

type slotRequest struct {
	Day      string `json:"day" binding:"required"`
	MealType string `json:"mealType" binding:"required"`
}

func (ph *PlanHandler) Generate(c *gin.Context) {
	plan, err := ph.plans.GeneratePlan(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, plan)
}

func (ph *PlanHandler) Get(c *gin.Context) {
	plan, err := ph.plans.GetPlan(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, plan)
}

func (ph *PlanHandler) Swap(c *gin.Context) {
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	plan, err := ph.plans.SwapMeal(c.Request.Context(), middleware.CurrentUser(c), req.Day, req.MealType)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, plan)
}

func (ph *PlanHandler) Remove(c *gin.Context) {
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	plan, err := ph.plans.RemoveMeal(c.Request.Context(), middleware.CurrentUser(c), req.Day, req.MealType)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, plan)
}

func (ph *PlanHandler) AddItem(c *gin.Context) {
	var req struct {
		Item     string   `json:"item" binding:"required"`
		Quantity string   `json:"quantity" binding:"required"`
		Store    *string  `json:"store"`
		Price    *float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	item, err := ph.plans.AddItem(c.Request.Context(), middleware.CurrentUser(c), req.Item, req.Quantity, req.Store, req.Price)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, item)
}

func (ph *PlanHandler) RemoveItem(c *gin.Context) {
	if err := ph.plans.RemoveItem(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ph *PlanHandler) UpdateItem(c *gin.Context) {
	var req struct {
		Checked *bool `json:"checked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	item, err := ph.plans.SetChecked(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), *req.Checked)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, item)
}
