package dto

import (
	"time"

	"finboard/internal/fields"
)

// DisplayMode is how the rendering collaborator presents a widget. Stored
// with the config because it affects which fields are sensible to select.
type DisplayMode string

const (
	DisplayCard  DisplayMode = "card"
	DisplayTable DisplayMode = "table"
	DisplayChart DisplayMode = "chart"
)

type CreateWidgetRequest struct {
	Name                   string      `json:"name"`
	Provider               Provider    `json:"provider" validate:"required"`
	Endpoint               string      `json:"endpoint" validate:"required"`
	Symbol                 string      `json:"symbol"`
	SelectedFields         []string    `json:"selectedFields"`
	RefreshIntervalSeconds int         `json:"refreshIntervalSeconds" validate:"gte=10"`
	DisplayMode            DisplayMode `json:"displayMode" validate:"oneof=card table chart"`
}

type UpdateWidgetRequest struct {
	Name                   string      `json:"name"`
	Provider               Provider    `json:"provider" validate:"required"`
	Endpoint               string      `json:"endpoint" validate:"required"`
	Symbol                 string      `json:"symbol"`
	SelectedFields         []string    `json:"selectedFields"`
	RefreshIntervalSeconds int         `json:"refreshIntervalSeconds" validate:"gte=10"`
	DisplayMode            DisplayMode `json:"displayMode" validate:"oneof=card table chart"`
}

type WidgetPosition struct {
	WidgetID string `json:"widgetId"`
	Position int    `json:"position"`
}

type ReorderWidgetsRequest struct {
	WidgetOrder []WidgetPosition `json:"widgetOrder" validate:"required,min=1"`
}

// BoundField is one selected field resolved against the widget's latest
// payload. Display carries "N/A" when the path is absent from the current
// data shape.
type BoundField struct {
	Path    string `json:"path"`
	Label   string `json:"label"`
	Value   any    `json:"value"`
	Display string `json:"display"`
}

type WidgetDataResponse struct {
	WidgetID          string       `json:"widgetId"`
	Fields            []BoundField `json:"fields"`
	IsLoading         bool         `json:"isLoading"`
	Error             string       `json:"error,omitempty"`
	LastUpdated       time.Time    `json:"lastUpdated"`
	LastSuccess       time.Time    `json:"lastSuccess,omitempty"`
	ServedViaFallback bool         `json:"servedViaFallback,omitempty"`
}

type TestConnectionResponse struct {
	Success bool                     `json:"success"`
	Shape   PayloadShape             `json:"shape,omitempty"`
	Fields  []fields.FieldDescriptor `json:"fields,omitempty"`
	Error   string                   `json:"error,omitempty"`
}
