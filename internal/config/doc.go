// Package config loads bloc configuration files.
//
// A project is configured by one of bloc.json, bloc.yaml (or .yml) or
// bloc.toml. The format is picked from the file extension; every format
// decodes into the same Config:
//
//	{
//	  "name": "todo",
//	  "dev": true,
//	  "logLevel": "debug",
//	  "metrics": {"enabled": true, "namespace": "todo"},
//	  "tracing": {"enabled": true, "tracerName": "todo"},
//	  "inspector": {"addr": "localhost:7070", "path": "/inspect"}
//	}
//
// Missing fields fall back to the values returned by New.
package config
