// Package config provides configuration parsing for ripple projects.
//
// The configuration is stored in ripple.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "my-app",
//	  "debug": false,
//	  "inspector": {
//	    "host": "localhost",
//	    "port": 4000,
//	    "maxValueLen": 128
//	  },
//	  "metrics": {
//	    "namespace": "ripple",
//	    "subsystem": "app"
//	  },
//	  "persist": {
//	    "dir": ".ripple",
//	    "snapshot": "state"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.InspectorURL())
package config
