package main

import (
	"context"

	"github.com/niksmo/kiksniks/config"
	"github.com/niksmo/kiksniks/internal/app"
	"github.com/niksmo/kiksniks/pkg/sigctx"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	storefront := app.New(sigCtx, cfg)

	storefront.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.CloseTimeout)
	defer cancel()

	storefront.Close(ctx)
}
