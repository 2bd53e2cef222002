package view

import (
	"time"

	"github.com/bradenaw/juniper/xslices"

	"github.com/vipul43/label-mirror/internal/models"
)

// DefaultLayout matches a en-US locale date-time rendering
const DefaultLayout = "1/2/2006, 3:04:05 PM"

// displayNames overrides the shown name of some provider labels
var displayNames = map[string]string{
	"CATEGORY_PERSONAL": "PERSONAL",
}

// Category is one section of the email page
type Category struct {
	LabelID  string
	Name     string
	Messages []models.Message
}

// DisplayName returns the section title for a stored label
func DisplayName(label models.Label) string {
	if name, ok := displayNames[label.ID]; ok {
		return name
	}
	return label.Name
}

// Categorize groups messages under the allowed labels, in allowed order.
// Allowed ids missing from labels get no section. A message lands in every
// section whose label it carries.
func Categorize(messages []models.Message, labels []models.Label, allowed []string) []Category {
	byID := make(map[string]models.Label, len(labels))
	for _, l := range labels {
		byID[l.ID] = l
	}

	categories := make([]Category, 0, len(allowed))
	seen := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		label, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		categories = append(categories, Category{
			LabelID: id,
			Name:    DisplayName(label),
			Messages: xslices.Filter(messages, func(m models.Message) bool {
				return m.HasLabel(id)
			}),
		})
	}
	return categories
}

// Formatter renders stored instants for display
type Formatter struct {
	Location *time.Location
	Layout   string
}

func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{Location: loc, Layout: DefaultLayout}
}

// Format renders t in the formatter's zone and layout
func (f *Formatter) Format(t time.Time) string {
	return t.In(f.Location).Format(f.Layout)
}
