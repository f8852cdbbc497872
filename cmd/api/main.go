package main

import (
	"go.uber.org/fx"

	"github.com/alim-webecc/ha-tms/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
