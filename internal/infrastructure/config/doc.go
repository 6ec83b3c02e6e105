// Package config handles loading and validating influxgw configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Database and broker passwords should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/influxgw.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Influx.Hosts)
//
// A minimal file:
//
//	influx:
//	  hosts:
//	    - host: 10.0.0.1
//	    - host: 10.0.0.2
//	      port: 8087
//	  database: metrics
//	  request_timeout_ms: 5000
//	  failover_timeout_ms: 60000
package config
