package main

import (
	"fmt"

	"github.com/swaparoo/swaparoo/brokerd"
)

func main() {
	err := brokerd.Run()
	if err != nil {
		fmt.Println(err)
	}
}
