package adapter

import (
	"fmt"

	"book-catalogue/internal/core/model"
)

// BookView is a record as displayed: absent text fields read "Not informed".
type BookView struct {
	Title          string  `json:"title"`
	Author         string  `json:"author"`
	Genre          string  `json:"genre"`
	Location       string  `json:"location"`
	Status         string  `json:"status"`
	StatusLabel    string  `json:"status_label"`
	AvailableCount *int    `json:"available_count,omitempty"`
	AddedAt        *string `json:"added_at,omitempty"`
}

func NewBookView(r model.Record) BookView {
	v := BookView{
		Title:       displayText(r, model.FieldTitle),
		Author:      displayText(r, model.FieldAuthor),
		Genre:       displayText(r, model.FieldGenre),
		Location:    displayText(r, model.FieldLocation),
		Status:      r.Status(),
		StatusLabel: FormatStatus(r),
	}
	if f, ok := r[model.FieldAvailableCount].(float64); ok {
		n := int(f)
		v.AvailableCount = &n
	}
	if s, ok := r.Text(model.FieldAddedAt); ok && s != "" {
		v.AddedAt = &s
	}
	return v
}

func displayText(r model.Record, field string) string {
	if s, ok := r.Text(field); ok && s != "" {
		return s
	}
	return model.NotInformed
}

// FormatStatus renders "3 Copies Available" style labels; with no count it
// is just the status.
func FormatStatus(r model.Record) string {
	n := int(r.AvailableCount())
	if n <= 0 {
		return r.Status()
	}
	noun := "Copy"
	if n > 1 {
		noun = "Copies"
	}
	return fmt.Sprintf("%d %s %s", n, noun, r.Status())
}
