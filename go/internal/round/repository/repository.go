package repository

import (
	"errors"

	"github.com/mcdev12/wheelround/go/internal/models"
)

var (
	ErrRoundNotFound = errors.New("round not found")
)

// DefaultHistoryLimit caps history listings when no limit is given.
const DefaultHistoryLimit = 100

// roundResultColumns maps categories to game_rounds columns.
var roundResultColumns = map[models.Category]string{
	models.CategoryA1: "a1_result",
	models.CategoryA2: "a2_result",
	models.CategoryB1: "b1_result",
	models.CategoryB2: "b2_result",
	models.CategoryC1: "c1_result",
	models.CategoryC2: "c2_result",
}

// assignedResults returns the column/value pairs for every assigned outcome,
// in category order. Unassigned outcomes are left untouched on update.
func assignedResults(outcomes models.OutcomeSet) ([]string, []int) {
	var cols []string
	var vals []int
	for _, c := range models.Categories {
		if v := outcomes[c]; v != nil {
			cols = append(cols, roundResultColumns[c])
			vals = append(vals, *v)
		}
	}
	return cols, vals
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
