package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"mealplanr/internal/catalog"
	"mealplanr/internal/http/response"
)

// MealFinder lists catalog meals covering a set of dietary tags.
type MealFinder interface {
	Find(ctx context.Context, tags []string) ([]catalog.Meal, error)
}

type MealHandler struct {
	meals MealFinder
}

func NewMealHandler(meals MealFinder) *MealHandler {
	return &MealHandler{meals: meals}
}

// List serves GET /meals?tag=vegan&tag=gluten-free.
func (mh *MealHandler) List(c *gin.Context) {
	meals, err := mh.meals.Find(c.Request.Context(), c.QueryArray("tag"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if meals == nil {
		meals = []catalog.Meal{}
	}
	response.RespondOK(c, gin.H{"meals": meals})
}
