package utils

import (
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
	log "github.com/sirupsen/logrus"
)

// DefaultWorkers is the concurrency cap used when nothing else is configured.
const DefaultWorkers = 5

// GetOptimalWorkerCount determines the number of concurrent scrapes based on config and system resources.
func GetOptimalWorkerCount(configValue string) int {
	if configValue == "" {
		return DefaultWorkers
	}
	if manualWorkers, err := strconv.Atoi(configValue); err == nil && manualWorkers > 0 {
		return manualWorkers
	}

	if configValue != "auto" {
		log.Warnf("Invalid workers value '%s'. Defaulting to 'auto' mode.", configValue)
	}

	// Logical cores: scraping is I/O bound.
	cpuCores, err := cpu.Counts(true)
	if err != nil {
		log.Warnf("Could not detect CPU cores. Falling back to default: %d workers.", DefaultWorkers)
		return DefaultWorkers
	}

	// Half of the cores keeps browser instances from starving the host.
	optimalCount := cpuCores / 2
	if optimalCount < 1 {
		optimalCount = 1
	}
	if optimalCount > 16 {
		optimalCount = 16
	}

	log.WithFields(log.Fields{"cores": cpuCores, "workers": optimalCount}).Info("Automatically sized worker pool")
	return optimalCount
}
