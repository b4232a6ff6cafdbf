package xnode

import "strings"

// ContainerConfig is the workload descriptor deployed to a container on the
// remote xnode manager.
type ContainerConfig struct {
	Flake string `json:"flake"`
}

// SetAction creates or replaces a container's configuration.
type SetAction struct {
	Container string          `json:"container"`
	Config    ContainerConfig `json:"config"`
}

// RemoveAction tears down a container, optionally keeping a backup.
type RemoveAction struct {
	Container string `json:"container"`
	Backup    bool   `json:"backup"`
}

// ConfigAction is the tagged variant accepted by the manager's config/change
// endpoint. Exactly one field is set; the wire shape is the variant name as
// the single JSON key.
type ConfigAction struct {
	Set    *SetAction    `json:"Set,omitempty"`
	Remove *RemoveAction `json:"Remove,omitempty"`
}

// ContainerID derives the container name for a reservation owner token. Dots
// are not valid in container names on the manager side.
func ContainerID(owner string) string {
	return strings.ReplaceAll(owner, ".", "-")
}
