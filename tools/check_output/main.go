package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	docxmerge "github.com/little-yangyang/docx-merge"
)

// Lists the entries of a generated document and prints its body.
func main() {
	if len(os.Args) != 2 {
		fmt.Println("usage: check_output FILE")
		os.Exit(2)
	}
	path := os.Args[1]

	zr, err := zip.OpenReader(path)
	if err != nil {
		panic(err)
	}
	defer zr.Close()

	body := docxmerge.BodyEntry(path)
	for _, zf := range zr.File {
		fmt.Println(zf.Name)
		if zf.Name == body {
			rc, err := zf.Open()
			if err != nil {
				panic(err)
			}
			io.Copy(os.Stdout, rc)
			rc.Close()
			fmt.Println()
		}
	}
}
