package models

import (
	"time"

	"finboard/internal/dto"
)

// Widget is a user's dashboard widget configuration. Persisted either in
// Firestore or in the key-value store, depending on deployment.
type Widget struct {
	WidgetID               string          `firestore:"widgetId" json:"widgetId"`
	Name                   string          `firestore:"name" json:"name"`
	Provider               dto.Provider    `firestore:"provider" json:"provider"`
	Endpoint               string          `firestore:"endpoint" json:"endpoint"`
	Symbol                 string          `firestore:"symbol,omitempty" json:"symbol,omitempty"`
	SelectedFields         []string        `firestore:"selectedFields" json:"selectedFields"`
	RefreshIntervalSeconds int             `firestore:"refreshIntervalSeconds" json:"refreshIntervalSeconds"`
	DisplayMode            dto.DisplayMode `firestore:"displayMode" json:"displayMode"`
	Position               int             `firestore:"position" json:"position"`
	CreatedAt              time.Time       `firestore:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time       `firestore:"updatedAt" json:"updatedAt"`
}

// WidgetRuntimeState is the live companion to a Widget. Mutated exclusively
// by the refresh orchestrator; at rest either data or error is meaningful,
// never a dangling loading state.
type WidgetRuntimeState struct {
	Data              any       `json:"data"`
	LastUpdated       time.Time `json:"lastUpdated"`
	LastSuccess       time.Time `json:"lastSuccess"`
	IsLoading         bool      `json:"isLoading"`
	Error             string    `json:"error,omitempty"`
	ServedViaFallback bool      `json:"servedViaFallback,omitempty"`
}
