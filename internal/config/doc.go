// Package config provides loading and environment overlay for runlog
// configuration. It exposes a Default() baseline, a Load() that accepts
// JSON/JSONC or YAML files, and a FromEnv overlay for RUNLOG_* variables.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/runlog.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
