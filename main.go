package main

import (
	"log"
	"os"

	"taskmanager/connection"

	"github.com/gin-gonic/gin"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := connection.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if err := connection.RunCommand(command, cfg); err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}
