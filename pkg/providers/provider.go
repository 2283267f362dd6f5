// Package providers defines the contract capability providers satisfy to
// contribute tools to the agent's toolset. Providers also expose their own
// read-only query methods for inspection outside the agent loop; those are
// provider-specific and not part of this interface.
package providers

import (
	"github.com/arodchenko/deskagent/pkg/agent"
)

// Provider is an opaque source of tools.
type Provider interface {
	// Name identifies the provider in logs and assembly diagnostics.
	Name() string
	// Tools returns the provider's tool list in a stable order.
	Tools() []agent.Tool
}
