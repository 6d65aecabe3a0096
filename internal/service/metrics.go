package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	configSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_config_saves_total",
		Help: "Total number of successful configuration saves.",
	})
	configSaveFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_config_save_failures_total",
		Help: "Total number of failed configuration saves.",
	})
	configKeysWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_config_keys_written_total",
		Help: "Total number of configuration keys written, by operation.",
	}, []string{"op"})
	snapshotReloadFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_config_snapshot_reload_failures_total",
		Help: "Snapshot reloads after a save that failed and fell back to the saved fragment.",
	})
	machinesCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_machines_cache_lookups_total",
		Help: "Machine list cache lookups, by result.",
	}, []string{"result"})
)
