package main

import (
	"fmt"

	"github.com/phuslu/log"
	"github.com/yonwoo9/minicask"
)

func main() {
	store, err := minicask.Open("data",
		minicask.MaxSegmentSize(4096),
		minicask.Logger(log.Logger{
			Level:  log.DebugLevel,
			Writer: &log.ConsoleWriter{ColorOutput: true},
		}),
	)
	if err != nil {
		panic(err)
	}
	defer store.Close()

	if err = store.Set("language", "go"); err != nil {
		fmt.Println(err)
		return
	}
	if err = store.Set("editor", "vim"); err != nil {
		fmt.Println(err)
		return
	}
	if err = store.Set("shell", "zsh"); err != nil {
		fmt.Println(err)
		return
	}

	value, ok, err := store.Get("language")
	if err != nil {
		fmt.Println(err)
		return
	}
	if ok {
		fmt.Println("language:", value)
	}

	if err = store.Remove("shell"); err != nil {
		fmt.Println(err)
		return
	}

	it := store.Iterator()
	for it.Next() {
		value, err := it.Value()
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("%s = %s\n", it.Key(), value)
	}

	if err = store.Compact(); err != nil {
		fmt.Println(err)
		return
	}

	stats := store.Stats()
	fmt.Printf("%d keys across %d segments\n", stats.Keys, stats.Segments)
}
