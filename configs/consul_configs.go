package configs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ConsulService struct {
	ID      string            `json:"ID"`
	Name    string            `json:"Name"`
	Address string            `json:"Address"`
	Port    int               `json:"Port"`
	Check   map[string]string `json:"Check"`
}

// RegisterService registers the HTTP API with the local Consul agent,
// using /health as its check.
func RegisterService(ctx context.Context, client *http.Client, cfg ConsulConfig, port int) error {
	service := ConsulService{
		ID:      cfg.ServiceID,
		Name:    cfg.ServiceName,
		Address: cfg.ServiceAddress,
		Port:    port,
		Check: map[string]string{
			"HTTP":     fmt.Sprintf("http://%s:%d/health", cfg.ServiceAddress, port),
			"Interval": "10s",
		},
	}

	data, err := json.Marshal(service)
	if err != nil {
		return fmt.Errorf("failed to marshal service data: %w", err)
	}

	url := strings.TrimRight(cfg.Address, "/") + "/v1/agent/service/register"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create PUT request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to register service with Consul: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to register service with Consul: %s", resp.Status)
	}
	return nil
}

// DeregisterService removes the service on shutdown.
func DeregisterService(ctx context.Context, client *http.Client, cfg ConsulConfig) error {
	url := strings.TrimRight(cfg.Address, "/") + "/v1/agent/service/deregister/" + cfg.ServiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deregister service with Consul: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to deregister service with Consul: %s", resp.Status)
	}
	return nil
}
