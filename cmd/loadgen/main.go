package main

import (
	"os"

	"github.com/sandeepkv93/movie-catalog-backend/internal/tools/common"
	tool "github.com/sandeepkv93/movie-catalog-backend/internal/tools/loadgen"
)

func main() {
	os.Exit(common.Main(tool.NewRootCommand()))
}
