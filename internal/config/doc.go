// Package config provides configuration parsing for Loom projects.
//
// The configuration is stored in loom.json (or loom.yaml) at the project
// root. This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "my-app",
//	  "server": {
//	    "port": 3000,
//	    "host": "localhost",
//	    "maxSessions": 100,
//	    "devMode": true
//	  },
//	  "templates": {
//	    "dir": "templates",
//	    "ext": ".html",
//	    "cache": true,
//	    "s3": {
//	      "bucket": "my-templates",
//	      "prefix": "prod/",
//	      "region": "us-east-1"
//	    }
//	  },
//	  "static": {
//	    "dir": "public",
//	    "prefix": "/static/"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// The same structure is accepted as YAML when the file is named loom.yaml.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Port:", cfg.Server.Port)
package config
