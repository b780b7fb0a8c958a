//go:build duckdb || all_adapters

package main

import _ "github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource/duckdb" // register duckdb adapter
