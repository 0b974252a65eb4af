package ledgerapi

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface required for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the ledger-api component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "ledger-api",
		Factory:     NewComponent,
		Schema:      ledgerAPISchema,
		Type:        "processor",
		Protocol:    "http",
		Domain:      "ledger",
		Description: "HTTP endpoints serving ledger analytics and sync control",
		Version:     "0.1.0",
	})
}
