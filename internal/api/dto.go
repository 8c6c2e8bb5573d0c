package api

import (
	"encoding/json"

	"github.com/starford/marquee/internal/configstore"
	"github.com/starford/marquee/internal/journal"
	"github.com/starford/marquee/internal/models"
)

// CellRequest is the body of POST/PUT cell requests. An absent "display"
// counts as true. Order is owned by the store and cannot be set here.
type CellRequest struct {
	Title       string `json:"title" example:"Opening hours" validate:"required"`
	Description string `json:"description" example:"[image='hours.png']"`
	Display     *bool  `json:"display,omitempty" example:"true"`
}

// Cell converts the request into a cell without an order.
func (r CellRequest) Cell() models.Cell {
	display := true
	if r.Display != nil {
		display = *r.Display
	}
	return models.Cell{Title: r.Title, Description: r.Description, Display: display}
}

// CellsResponse maps cell IDs to cells.
type CellsResponse = models.Collection

// ExchangeRequest names the two cells whose orders are swapped.
type ExchangeRequest struct {
	A string `json:"a" example:"cell_1700000000000" validate:"required"`
	B string `json:"b" example:"cell_1700000000001" validate:"required"`
}

// ImageRequest names a file on the operator's machine to store as an image.
type ImageRequest struct {
	Path string `json:"path" example:"/home/me/Pictures/logo.png" validate:"required"`
}

// ImageListResponse wraps stored images.
type ImageListResponse struct {
	Images []models.FileMeta `json:"images" validate:"required"`
}

// ConfigRequest sets one key of a config document. Value is any JSON value.
type ConfigRequest struct {
	Key   string          `json:"key" example:"font_size" validate:"required"`
	Value json.RawMessage `json:"value" swaggertype:"primitive,string" example:"18"`
}

// ConfigResponse is a config document.
type ConfigResponse = configstore.Document

// JournalResponse wraps journal entries, newest first.
type JournalResponse struct {
	Entries []journal.Entry `json:"entries" validate:"required"`
}
