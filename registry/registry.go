package registry

import (
	"fmt"
	"time"
)

// Instance is one running copy of the service as announced to discovery.
type Instance struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	Meta    map[string]string
}

// ServiceRegistry announces instances and finds healthy peers.
type ServiceRegistry interface {
	// Register announces inst with a gRPC health check against Address:Port.
	Register(inst Instance, checkInterval time.Duration) error
	Deregister(id string) error
	// Discover returns "host:port" of every instance passing its checks.
	Discover(name, tag string) ([]string, error)
}

// InstanceID is unique per name, host and port.
func InstanceID(name, host string, port int) string {
	return fmt.Sprintf("%s-%s-%d", name, host, port)
}
