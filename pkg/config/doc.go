// Package config loads transfer job files for batchxfer.
//
//	            +-------------+
//	            |   Config    |
//	            |   (Job)     |
//	            +------+------+
//	                   |
//	      +-----------+-----------+-----------+
//	      |                       |           |
//	+-----+-----+           +----+----+  +---+----+
//	|   YAML    |           |   HCL   |  |  JSON  |
//	| Parser    |           | Parser  |  | Parser |
//	+-----------+           +---------+  +--------+
//
// 🎯 Purpose:
// - Reads a job file and picks a parser by extension
// - Rejects unknown fields in every format
// - Fills defaults (os backends, copy mode, concurrency 2, "_" rename suffix)
//
// 📄 YAML:
//
//	source:
//	  backend: os
//	  root: /home/me/photos
//	destination:
//	  root: /mnt/backup
//	entries: ["2024", favorites]
//	exclude: ["**/*.tmp"]
//	mode: copy
//	concurrency: 4
//
// 📄 HCL:
//
//	source {
//	  root = "${home}/photos"
//	}
//	destination {
//	  backend = "os"
//	  root    = env.BACKUP_ROOT
//	}
//	mode = "move"
//
// HCL expressions see `home` and the process environment as `env`.
package config
