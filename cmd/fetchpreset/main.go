package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	get "github.com/hashicorp/go-getter"
)

func main() {
	var (
		src  = flag.String("src", "", "go-getter source of the preset bundle (git::, https://, s3::, gcs::, local path)")
		name = flag.String("name", "", "bundle name; files land in <out>/<name>")
		out  = flag.String("o", "./data/presets", "output dir path")
	)
	flag.Parse()

	if *src == "" {
		log.Fatal("source required")
	}
	if *name == "" {
		*name = filepath.Base(*src)
	}

	path := filepath.Join(*out, *name)
	if err := os.RemoveAll(path); err != nil {
		log.Fatal(err)
	}

	log.Default().Printf("start downloading presets %s", path)

	if err := get.Get(path, *src); err != nil {
		log.Fatal(fmt.Errorf("fetch %s: %w", *src, err))
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml", ".lua":
			log.Default().Printf("  %s", e.Name())
		}
	}

	log.Default().Printf("done downloading presets %s", path)
}
