package main

import (
	"github.com/phamquangkhanh2999/order-api/internal/app"
	"github.com/phamquangkhanh2999/order-api/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
