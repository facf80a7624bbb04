package registry

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

var ErrNoInstances = errors.New("no healthy instances")

type consulRegistry struct {
	client *consulapi.Client
	logger *zap.Logger
}

var _ ServiceRegistry = (*consulRegistry)(nil)

// NewConsulRegistry creates a registry backed by the Consul agent at address.
func NewConsulRegistry(address string, logger *zap.Logger) (ServiceRegistry, error) {
	consulConfig := consulapi.DefaultConfig()
	consulConfig.Address = address

	client, err := consulapi.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return &consulRegistry{client: client, logger: logger.Named("consul")}, nil
}

func (r *consulRegistry) Register(inst Instance, checkInterval time.Duration) error {
	reg := &consulapi.AgentServiceRegistration{
		ID:      inst.ID,
		Name:    inst.Name,
		Tags:    inst.Tags,
		Port:    inst.Port,
		Address: inst.Address,
		Meta:    inst.Meta,
		Check:   grpcCheck(inst, checkInterval),
	}

	if err := r.client.Agent().ServiceRegister(reg); err != nil {
		r.logger.Error("Failed to register service with Consul", zap.String("service_id", inst.ID), zap.Error(err))
		return fmt.Errorf("failed to register service '%s': %w", inst.Name, err)
	}
	r.logger.Info("Registered service with Consul",
		zap.String("service_id", inst.ID),
		zap.String("address", net.JoinHostPort(inst.Address, strconv.Itoa(inst.Port))))
	return nil
}

func (r *consulRegistry) Deregister(id string) error {
	if err := r.client.Agent().ServiceDeregister(id); err != nil {
		r.logger.Error("Failed to deregister service from Consul", zap.String("service_id", id), zap.Error(err))
		return fmt.Errorf("failed to deregister service '%s': %w", id, err)
	}
	r.logger.Info("Deregistered service from Consul", zap.String("service_id", id))
	return nil
}

func (r *consulRegistry) Discover(name, tag string) ([]string, error) {
	// passingOnly drops instances whose health check is failing.
	instances, _, err := r.client.Health().Service(name, tag, true, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to discover service '%s': %w", name, err)
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("%w for service '%s'", ErrNoInstances, name)
	}

	addrs := make([]string, 0, len(instances))
	for _, inst := range instances {
		// Prefer Service.Address, fallback to Node.Address
		addr := inst.Service.Address
		if addr == "" && inst.Node != nil {
			addr = inst.Node.Address
		}
		addrs = append(addrs, net.JoinHostPort(addr, strconv.Itoa(inst.Service.Port)))
	}
	return addrs, nil
}

// grpcCheck queries the overall status of the standard gRPC health service.
func grpcCheck(inst Instance, interval time.Duration) *consulapi.AgentServiceCheck {
	return &consulapi.AgentServiceCheck{
		CheckID:                        "check_" + inst.ID + "_grpc",
		Name:                           "gRPC Check for " + inst.ID,
		GRPC:                           net.JoinHostPort(inst.Address, strconv.Itoa(inst.Port)),
		Interval:                       interval.String(),
		Timeout:                        time.Second.String(),
		DeregisterCriticalServiceAfter: "1m",
	}
}
