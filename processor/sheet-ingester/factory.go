package sheetingester

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface needed for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the sheet-ingester processor component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "sheet-ingester",
		Factory:     NewComponent,
		Schema:      sheetIngesterSchema,
		Type:        "processor",
		Protocol:    "nats",
		Domain:      "ledger",
		Description: "Google Sheets puller that builds and stores ledger snapshots",
		Version:     "0.1.0",
	})
}
