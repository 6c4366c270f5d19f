package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/apipath/blog/scaffold"
)

func runNew(args []string) error {
	var title string
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.StringVarP(&title, "title", "t", "", "site title (defaults to the directory name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: blog new [--title TITLE] <dir>")
	}
	dir := fs.Arg(0)

	data, err := scaffold.NewData(dir)
	if err != nil {
		return err
	}
	if title != "" {
		data.SiteName = title
	}

	fmt.Printf("Creating new blog: %s\n\n", dir)
	created, err := scaffold.Create(dir, data)
	if err != nil {
		return err
	}
	for _, p := range created {
		fmt.Printf("  created %s\n", p)
	}

	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", dir)
	fmt.Println("  cp .env.example .env")
	fmt.Println("  blog serve")
	fmt.Println()
	fmt.Println("Edit blog.yaml for your name and social handles, then 'blog build' for production.")
	return nil
}
