// Package inventory turns the configured device inventory into registered
// devices and RESTCONF connection targets, and finds candidate switches on a
// subnet with nmap.
package inventory

import (
	"context"

	"github.com/rs/zerolog/log"

	"switchgraph/internal/config"
	"switchgraph/internal/domain"
	"switchgraph/internal/repository"
)

// Registrar replaces the set of registered devices
type Registrar interface {
	SyncDevices(ctx context.Context, devices []domain.Device) (repository.SyncSummary, error)
}

// Devices converts inventory entries to devices
func Devices(entries []config.DeviceConfig) []domain.Device {
	devices := make([]domain.Device, 0, len(entries))
	for _, e := range entries {
		devices = append(devices, domain.Device{
			MgtIP:    e.MgtIP,
			Name:     e.Name,
			Platform: e.Platform,
		})
	}
	return devices
}

// Sync registers the devices of cfg and unregisters every other device
func Sync(ctx context.Context, r Registrar, cfg *config.Config) (repository.SyncSummary, error) {
	summary, err := r.SyncDevices(ctx, Devices(cfg.Devices))
	if err != nil {
		return summary, err
	}
	for _, ip := range summary.Removed {
		log.Info().Str("device", ip).Msg("Device removed from inventory")
	}
	return summary, nil
}
