package model

import "sort"

// Question is one prompt in a survey. Immutable once a session references it.
type Question struct {
	ID         string `json:"id" bson:"id"`
	Text       string `json:"text" bson:"text"`
	OrderIndex int    `json:"orderIndex" bson:"orderIndex"`
}

// SortQuestions orders questions by ascending OrderIndex, keeping input order on ties
func SortQuestions(qs []Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		return qs[i].OrderIndex < qs[j].OrderIndex
	})
}
