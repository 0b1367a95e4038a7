// Package config loads service configuration with viper.
//
// A service's config.yml is looked up under ./cmd/<service>/ (and a few
// parent directories), then overlaid with an optional .env file loaded by
// godotenv and finally with process environment variables, where
// SERVER_PORT addresses server.port.
//
//	var cfg MyConfig
//	err := config.LoadConfig("voxboard-server", &cfg)
package config
