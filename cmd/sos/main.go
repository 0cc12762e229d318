package main

import (
	"os"

	"github.com/CIVIC-SOS/rapidassist/internal/app"
)

func main() {
	os.Exit(app.Run("sos", run))
}
