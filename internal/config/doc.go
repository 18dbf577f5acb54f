// Package config provides configuration parsing for the vtree tools.
//
// The configuration is stored in vtree.json, usually next to the tree files.
// Every field is optional.
//
// # Configuration File Structure
//
//	{
//	  "layout": {
//	    "width": 375,
//	    "height": 812,
//	    "options": ["sizeContainerViewToFit"]
//	  },
//	  "log": { "level": "debug" },
//	  "inspector": { "address": "localhost:7070" },
//	  "metrics": { "namespace": "vtree" },
//	  "tracing": { "tracerName": "vtree" },
//	  "snapshot": {
//	    "backend": "s3",
//	    "s3": {
//	      "bucket": "ui-snapshots",
//	      "prefix": "trees/",
//	      "region": "eu-west-1"
//	    }
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.Inspector.Address)
package config
