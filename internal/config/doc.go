// Package config provides loading and environment overlay for folio
// configuration. It exposes a Default() baseline and converts the result
// into paper.Init input and a logger.
//
// Example:
//
//	cfg, err := config.Load("/etc/folio.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	logger, _ := cfg.Logger()
//	platform, _ := cfg.Platform(logger)
//	paper.Init(platform)
package config
