package main

import (
	"github.com/nabilaes48/knockbites-kitchen-board/internal/app"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
